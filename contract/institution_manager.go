package contract

import (
	"encoding/json"
	"errors"

	"scribe/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var instLogger = flogging.MustGetLogger("scribe.institutions")

// InstitutionManager handles institution registration and caller identity resolution.
type InstitutionManager struct {
	Ctx contractapi.TransactionContextInterface
}

// NewInstitutionManager creates a new instance of InstitutionManager.
func NewInstitutionManager(ctx contractapi.TransactionContextInterface) *InstitutionManager {
	return &InstitutionManager{Ctx: ctx}
}

func (im *InstitutionManager) createInstitutionCompositeKey(identity string) (string, error) {
	return im.Ctx.GetStub().CreateCompositeKey(institutionObjectType, []string{identity})
}

// RegisterInstitution registers the caller. A second call by the same identity fails with
// ALREADY-REGISTERED whatever name it supplies, and the stored record is left untouched.
func (im *InstitutionManager) RegisterInstitution(name string) error {
	actor, err := getMutatingActorInfo(im.Ctx)
	if err != nil {
		return err
	}

	existing, err := im.GetInstitution(actor.fullID)
	if err != nil {
		return err
	}
	if existing != nil {
		instLogger.Infof("RegisterInstitution: '%s' is already registered as '%s'. Rejecting '%s'.", actor.fullID, existing.Name, name)
		return newLedgerError(CodeAlreadyRegistered, "identity '%s' is already registered as institution '%s'", actor.fullID, existing.Name)
	}

	if err := validateRequiredString(name, "name", maxNameLength); err != nil {
		return err
	}

	inst := model.Institution{
		ObjectType:      institutionObjectType,
		Identity:        actor.fullID,
		Name:            name,
		OrganizationMSP: actor.mspID,
		RegisteredAt:    actor.sequence,
		Active:          true,
	}
	key, err := im.createInstitutionCompositeKey(actor.fullID)
	if err != nil {
		return ledgerFailure(err, "failed to create institution composite key for '%s'", actor.fullID)
	}
	if err := putStateJSON(im.Ctx, key, inst); err != nil {
		return err
	}

	emitLedgerEvent(im.Ctx, "InstitutionRegistered", actor, map[string]interface{}{"name": name})
	instLogger.Infof("Registered institution '%s' (%s), MSP %s, at sequence %d", name, actor.fullID, actor.mspID, actor.sequence)
	return nil
}

// GetInstitution returns the institution registered under identity, or nil when there is none.
func (im *InstitutionManager) GetInstitution(identity string) (*model.Institution, error) {
	if err := validateRequiredString(identity, "institution identity", maxIdentityLength); err != nil {
		return nil, err
	}
	key, err := im.createInstitutionCompositeKey(identity)
	if err != nil {
		return nil, ledgerFailure(err, "failed to create institution composite key for '%s'", identity)
	}
	var inst model.Institution
	found, err := getStateJSON(im.Ctx, key, &inst)
	if err != nil || !found {
		return nil, err
	}
	return &inst, nil
}

// RequireActiveInstitution fails with NOT-AUTHORIZED unless identity is a registered, active institution.
func (im *InstitutionManager) RequireActiveInstitution(identity string) (*model.Institution, error) {
	inst, err := im.GetInstitution(identity)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, newLedgerError(CodeNotAuthorized, "identity '%s' is not a registered institution", identity)
	}
	if !inst.Active {
		return nil, newLedgerError(CodeNotAuthorized, "institution '%s' (%s) is not active", inst.Name, identity)
	}
	return inst, nil
}

// GetCurrentIdentity retrieves the authenticated identity of the current transactor.
func (im *InstitutionManager) GetCurrentIdentity() (string, error) {
	clientIdentity := im.Ctx.GetClientIdentity()
	if clientIdentity == nil {
		return "", ledgerFailure(errors.New("client identity is nil from context"), "failed to resolve caller")
	}
	id, err := clientIdentity.GetID()
	if err != nil {
		return "", ledgerFailure(err, "failed to get client identity ID from context")
	}
	if id == "" { // GetID can return an empty string without error if not properly set up
		return "", ledgerFailure(errors.New("client identity ID from context is empty"), "failed to resolve caller")
	}
	return id, nil
}

// GetAllInstitutions lists every registered institution. Ledger data is public.
func (im *InstitutionManager) GetAllInstitutions() ([]model.Institution, error) {
	resultsIterator, err := im.Ctx.GetStub().GetStateByPartialCompositeKey(institutionObjectType, []string{})
	if err != nil {
		return nil, ledgerFailure(err, "failed to get institutions iterator using objectType '%s'", institutionObjectType)
	}
	defer resultsIterator.Close()

	institutions := []model.Institution{}
	for resultsIterator.HasNext() {
		queryResponse, iterErr := resultsIterator.Next()
		if iterErr != nil {
			return nil, ledgerFailure(iterErr, "failed to iterate institutions")
		}
		var inst model.Institution
		if err := json.Unmarshal(queryResponse.Value, &inst); err != nil {
			return nil, ledgerFailure(err, "failed to unmarshal institution at key '%s'", queryResponse.Key)
		}
		institutions = append(institutions, inst)
	}
	instLogger.Debugf("GetAllInstitutions: returning %d institutions", len(institutions))
	return institutions, nil
}
