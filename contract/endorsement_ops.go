package contract

import (
	"encoding/json"

	"scribe/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Endorsements ---

// EndorseCredential records the caller institution's rating of a credential. A repeat
// endorsement by the same institution replaces the previous one.
func (s *ScribeSmartContract) EndorseCredential(ctx contractapi.TransactionContextInterface,
	credentialID string, holder string, rating uint64, comment string, category string) (bool, error) {

	actor, err := getMutatingActorInfo(ctx)
	if err != nil {
		return false, err
	}
	if err := s.endorseCredential(ctx, actor, actor.fullID, credentialID, holder, rating, comment, category); err != nil {
		return false, err
	}
	return true, nil
}

// EndorseCredentialOnBehalf records an endorsement for institution with the caller acting as a
// delegate holding ENDORSE.
func (s *ScribeSmartContract) EndorseCredentialOnBehalf(ctx contractapi.TransactionContextInterface,
	institution string, credentialID string, holder string, rating uint64, comment string, category string) (bool, error) {

	actor, err := getMutatingActorInfo(ctx)
	if err != nil {
		return false, err
	}
	if err := validateRequiredString(institution, "institution", maxIdentityLength); err != nil {
		return false, err
	}
	if err := NewDelegateManager(ctx).RequireAuthority(institution, actor, PermissionEndorse); err != nil {
		return false, err
	}
	if err := s.endorseCredential(ctx, actor, institution, credentialID, holder, rating, comment, category); err != nil {
		return false, err
	}
	return true, nil
}

func (s *ScribeSmartContract) endorseCredential(ctx contractapi.TransactionContextInterface, actor *actorInfo,
	endorser string, credentialID string, holder string, rating uint64, comment string, category string) error {

	if _, err := NewInstitutionManager(ctx).RequireActiveInstitution(endorser); err != nil {
		return err
	}

	logger.Infof("'%s' endorsing credential '%s' of '%s' for institution '%s'", actor.fullID, credentialID, holder, endorser)

	if err := validateRequiredString(credentialID, "credentialId", maxIDLength); err != nil {
		return err
	}
	if err := validateRequiredString(holder, "holder", maxIdentityLength); err != nil {
		return err
	}
	if err := validateOptionalString(comment, "comment", maxCommentLength); err != nil {
		return err
	}
	if err := validateOptionalString(category, "category", maxLabelLength); err != nil {
		return err
	}
	if rating > maxRating {
		return newLedgerError(CodeInvalidRating, "rating %d is outside %d..%d", rating, minRating, maxRating)
	}

	cred, _, err := s.getCredential(ctx, credentialID, holder)
	if err != nil {
		return err
	}
	if cred == nil {
		return newLedgerError(CodeNotFound, "credential '%s' does not exist for holder '%s'", credentialID, holder)
	}
	if cred.Revoked {
		return newLedgerError(CodeCredentialRevoked, "credential '%s' of holder '%s' is revoked and cannot be endorsed", credentialID, holder)
	}
	if cred.Institution == endorser {
		return newLedgerError(CodeSelfEndorsement, "institution '%s' issued credential '%s' and cannot endorse it", endorser, credentialID)
	}

	key, err := createEndorsementCompositeKey(ctx, credentialID, holder, endorser)
	if err != nil {
		return ledgerFailure(err, "failed to create endorsement key for credential '%s'", credentialID)
	}
	var previous model.Endorsement
	replaced, err := getStateJSON(ctx, key, &previous)
	if err != nil {
		return err
	}

	endorsement := &model.Endorsement{
		ObjectType:      endorsementObjectType,
		CredentialID:    credentialID,
		Holder:          holder,
		Endorser:        endorser,
		EndorsedBy:      actor.fullID,
		Rating:          rating,
		Comment:         comment,
		Category:        category,
		EndorsedAt:      actor.sequence,
		FirstEndorsedAt: actor.sequence,
	}
	if replaced {
		endorsement.FirstEndorsedAt = previous.FirstEndorsedAt
	}
	if err := putStateJSON(ctx, key, endorsement); err != nil {
		return err
	}

	emitLedgerEvent(ctx, "CredentialEndorsed", actor, map[string]interface{}{
		"credentialId": credentialID, "holder": holder, "endorser": endorser, "rating": rating, "replaced": replaced,
	})
	logger.Infof("Credential '%s' of '%s' endorsed by '%s' with rating %d", credentialID, holder, endorser, rating)
	return nil
}

// GetEndorsement returns one institution's endorsement of a credential.
func (s *ScribeSmartContract) GetEndorsement(ctx contractapi.TransactionContextInterface, credentialID, holder, endorser string) (*model.Endorsement, error) {
	if err := validateCredentialRef(credentialID, holder); err != nil {
		return nil, err
	}
	if err := validateRequiredString(endorser, "endorser", maxIdentityLength); err != nil {
		return nil, err
	}
	key, err := createEndorsementCompositeKey(ctx, credentialID, holder, endorser)
	if err != nil {
		return nil, ledgerFailure(err, "failed to create endorsement key for credential '%s'", credentialID)
	}
	var endorsement model.Endorsement
	found, err := getStateJSON(ctx, key, &endorsement)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, newLedgerError(CodeNotFound, "no endorsement by '%s' on credential '%s' of holder '%s'", endorser, credentialID, holder)
	}
	return &endorsement, nil
}

// GetCredentialEndorsements lists all endorsements attached to a credential.
func (s *ScribeSmartContract) GetCredentialEndorsements(ctx contractapi.TransactionContextInterface, credentialID, holder string) ([]*model.Endorsement, error) {
	if err := validateRequiredString(credentialID, "credentialId", maxIDLength); err != nil {
		return nil, err
	}
	if err := validateRequiredString(holder, "holder", maxIdentityLength); err != nil {
		return nil, err
	}
	return s.listCredentialEndorsements(ctx, credentialID, holder)
}

func (s *ScribeSmartContract) listCredentialEndorsements(ctx contractapi.TransactionContextInterface, credentialID, holder string) ([]*model.Endorsement, error) {
	resultsIterator, err := ctx.GetStub().GetStateByPartialCompositeKey(endorsementObjectType, []string{holder, credentialID})
	if err != nil {
		return nil, ledgerFailure(err, "failed to get endorsements iterator for credential '%s'", credentialID)
	}
	defer resultsIterator.Close()

	endorsements := []*model.Endorsement{}
	for resultsIterator.HasNext() {
		queryResponse, iterErr := resultsIterator.Next()
		if iterErr != nil {
			return nil, ledgerFailure(iterErr, "failed to iterate endorsements of credential '%s'", credentialID)
		}
		var e model.Endorsement
		if err := json.Unmarshal(queryResponse.Value, &e); err != nil {
			return nil, ledgerFailure(err, "failed to unmarshal endorsement at key '%s'", queryResponse.Key)
		}
		endorsements = append(endorsements, &e)
	}
	return endorsements, nil
}
