package contract

import (
	"strconv"

	"scribe/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var logger = flogging.MustGetLogger("scribe.contract")

// Object types for composite keys, also usable as 'docType' or 'objectType' in CouchDB.
const (
	institutionObjectType = "Institution"    // Attribute for composite key: identity.
	delegateObjectType    = "DelegateGrant"  // Attributes: institution, delegate.
	credentialObjectType  = "Credential"     // Attributes: holder, credential id.
	endorsementObjectType = "Endorsement"    // Attributes: holder, credential id, endorser.
	sequenceObjectType    = "LedgerSequence" // No attributes; holds the sequence high-water mark.
)

// Constants for input validation and limits
const (
	maxNameLength        = 64
	maxIDLength          = 64
	maxIdentityLength    = 1024 // Fabric client ids embed full X.509 subject and issuer DNs
	maxStringInputLength = 100
	maxLabelLength       = 50
	maxMetadataLength    = 256
	maxCommentLength     = 256
	maxCredentialYear    = 9999
	maxPermissionTags    = 10
	maxBatchSize         = 50
	minRating            = 0
	maxRating            = 5
)

// ScribeSmartContract records institutions, their delegates, the credentials they issue and
// the endorsements other institutions attach to them.
// @contract:ScribeSmartContract
type ScribeSmartContract struct {
	contractapi.Contract
}

// actorInfo holds commonly needed details about the transaction invoker.
type actorInfo struct {
	fullID   string
	mspID    string
	sequence uint64
}

// Instantiate is called during chaincode instantiation.
func (s *ScribeSmartContract) Instantiate(ctx contractapi.TransactionContextInterface) {
	logger.Info("ScribeSmartContract Instantiated/Upgraded")
}

// --- Institution Wrappers (Delegating to InstitutionManager) ---

// RegisterInstitution registers the caller as an institution named name.
func (s *ScribeSmartContract) RegisterInstitution(ctx contractapi.TransactionContextInterface, name string) (bool, error) {
	logger.Infof("Chaincode Call: RegisterInstitution with name '%s'", name)
	if err := NewInstitutionManager(ctx).RegisterInstitution(name); err != nil {
		return false, err
	}
	return true, nil
}

// GetInstitution returns the institution registered under identity.
func (s *ScribeSmartContract) GetInstitution(ctx contractapi.TransactionContextInterface, identity string) (*model.Institution, error) {
	logger.Debugf("Chaincode Call: GetInstitution for '%s'", identity)
	inst, err := NewInstitutionManager(ctx).GetInstitution(identity)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, newLedgerError(CodeNotFound, "institution '%s' is not registered", identity)
	}
	return inst, nil
}

// IsRegisteredInstitution reports whether identity is a registered, active institution.
func (s *ScribeSmartContract) IsRegisteredInstitution(ctx contractapi.TransactionContextInterface, identity string) (bool, error) {
	inst, err := NewInstitutionManager(ctx).GetInstitution(identity)
	if err != nil {
		return false, err
	}
	return inst != nil && inst.Active, nil
}

// GetAllInstitutions lists every registered institution.
func (s *ScribeSmartContract) GetAllInstitutions(ctx contractapi.TransactionContextInterface) ([]model.Institution, error) {
	logger.Debug("Chaincode Call: GetAllInstitutions (public access)")
	return NewInstitutionManager(ctx).GetAllInstitutions()
}

// GetCallerInfo reports how the ledger sees the caller. Holders use it to learn the identity
// string credentials must be issued to.
func (s *ScribeSmartContract) GetCallerInfo(ctx contractapi.TransactionContextInterface) (map[string]string, error) {
	actor, err := getCurrentActorInfo(ctx)
	if err != nil {
		return nil, err
	}
	inst, err := NewInstitutionManager(ctx).GetInstitution(actor.fullID)
	if err != nil {
		return nil, err
	}
	info := map[string]string{
		"identity":     actor.fullID,
		"mspId":        actor.mspID,
		"sequence":     strconv.FormatUint(actor.sequence, 10),
		"isRegistered": strconv.FormatBool(inst != nil),
	}
	if inst != nil {
		info["institutionName"] = inst.Name
	}
	return info, nil
}

// --- Delegate Wrappers (Delegating to DelegateManager) ---

// AddDelegate grants delegate the listed permissions on the caller's institution until expiration.
func (s *ScribeSmartContract) AddDelegate(ctx contractapi.TransactionContextInterface, delegate string, permissions []string, expiration uint64) (bool, error) {
	logger.Infof("Chaincode Call: AddDelegate '%s' with permissions %v until %d", delegate, permissions, expiration)
	if err := NewDelegateManager(ctx).AddDelegate(delegate, permissions, expiration); err != nil {
		return false, err
	}
	return true, nil
}

// GetDelegate returns the grant of delegate on institution, projected at the current sequence.
func (s *ScribeSmartContract) GetDelegate(ctx contractapi.TransactionContextInterface, institution, delegate string) (*model.DelegateGrantView, error) {
	logger.Debugf("Chaincode Call: GetDelegate '%s' of '%s'", delegate, institution)
	return NewDelegateManager(ctx).GetDelegateView(institution, delegate)
}

// GetInstitutionDelegates lists every grant institution has made.
func (s *ScribeSmartContract) GetInstitutionDelegates(ctx contractapi.TransactionContextInterface, institution string) ([]model.DelegateGrantView, error) {
	logger.Debugf("Chaincode Call: GetInstitutionDelegates of '%s'", institution)
	return NewDelegateManager(ctx).GetInstitutionDelegates(institution)
}
