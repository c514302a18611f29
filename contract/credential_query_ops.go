package contract

import (
	"encoding/json"

	"scribe/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Query Functions ---

// getCredential is an internal helper to retrieve a credential and its key.
// A missing credential yields a nil record and no error.
func (s *ScribeSmartContract) getCredential(ctx contractapi.TransactionContextInterface, credentialID, holder string) (*model.Credential, string, error) {
	if err := validateCredentialRef(credentialID, holder); err != nil {
		return nil, "", err
	}
	key, err := createCredentialCompositeKey(ctx, credentialID, holder)
	if err != nil {
		return nil, "", ledgerFailure(err, "failed to create key for credential '%s'", credentialID)
	}
	var cred model.Credential
	found, err := getStateJSON(ctx, key, &cred)
	if err != nil || !found {
		return nil, key, err
	}
	return &cred, key, nil
}

func validateCredentialRef(credentialID, holder string) error {
	if err := validateRequiredString(credentialID, "credentialId", maxIDLength); err != nil {
		return err
	}
	return validateRequiredString(holder, "holder", maxIdentityLength)
}

// credentialValidAt reports whether cred is unrevoked and unexpired at seq.
func credentialValidAt(cred *model.Credential, seq uint64) bool {
	return cred != nil && !cred.Revoked && !credentialExpiredAt(cred, seq)
}

func credentialExpiredAt(cred *model.Credential, seq uint64) bool {
	return cred.ExpiresAt != 0 && seq >= cred.ExpiresAt
}

// GetCredentialInfo returns the credential with its validity and endorsement summary at the
// current sequence, or nil when no such credential exists.
func (s *ScribeSmartContract) GetCredentialInfo(ctx contractapi.TransactionContextInterface, credentialID, holder string) (*model.CredentialInfo, error) {
	logger.Debugf("GetCredentialInfo: Querying credential '%s' of holder '%s'", credentialID, holder)
	if err := validateCredentialRef(credentialID, holder); err != nil {
		return nil, err
	}
	seq, err := currentSequence(ctx)
	if err != nil {
		return nil, err
	}

	cred, _, err := s.getCredential(ctx, credentialID, holder)
	if err != nil || cred == nil {
		return nil, err
	}

	endorsements, err := s.listCredentialEndorsements(ctx, credentialID, holder)
	if err != nil {
		return nil, err
	}

	return &model.CredentialInfo{
		Credential:   cred,
		Valid:        credentialValidAt(cred, seq),
		Expired:      credentialExpiredAt(cred, seq),
		ReadAt:       seq,
		Endorsements: summarizeEndorsements(endorsements),
	}, nil
}

// IsCredentialValid reports whether the credential exists, is unrevoked and is unexpired.
func (s *ScribeSmartContract) IsCredentialValid(ctx contractapi.TransactionContextInterface, credentialID, holder string) (bool, error) {
	seq, err := currentSequence(ctx)
	if err != nil {
		return false, err
	}
	cred, _, err := s.getCredential(ctx, credentialID, holder)
	if err != nil {
		return false, err
	}
	return credentialValidAt(cred, seq), nil
}

// VerifyCredentialDigest reports whether digest matches the stored credential and the
// stored credential still hashes to it.
func (s *ScribeSmartContract) VerifyCredentialDigest(ctx contractapi.TransactionContextInterface, credentialID, holder, digest string) (bool, error) {
	cred, _, err := s.getCredential(ctx, credentialID, holder)
	if err != nil || cred == nil {
		return false, err
	}
	recomputed, err := credentialDigest(cred)
	if err != nil {
		return false, err
	}
	if recomputed != cred.Digest {
		logger.Warningf("VerifyCredentialDigest: stored digest of credential '%s' (holder '%s') does not match its fields", credentialID, holder)
		return false, nil
	}
	return digest == cred.Digest, nil
}

// GetHolderCredentials lists every credential held by holder, revoked ones included.
func (s *ScribeSmartContract) GetHolderCredentials(ctx contractapi.TransactionContextInterface, holder string) ([]*model.Credential, error) {
	if err := validateRequiredString(holder, "holder", maxIdentityLength); err != nil {
		return nil, err
	}
	resultsIterator, err := ctx.GetStub().GetStateByPartialCompositeKey(credentialObjectType, []string{holder})
	if err != nil {
		return nil, ledgerFailure(err, "failed to get credentials iterator for holder '%s'", holder)
	}
	defer resultsIterator.Close()

	credentials := []*model.Credential{}
	for resultsIterator.HasNext() {
		queryResponse, iterErr := resultsIterator.Next()
		if iterErr != nil {
			return nil, ledgerFailure(iterErr, "failed to iterate credentials of holder '%s'", holder)
		}
		var cred model.Credential
		if err := json.Unmarshal(queryResponse.Value, &cred); err != nil {
			return nil, ledgerFailure(err, "failed to unmarshal credential at key '%s'", queryResponse.Key)
		}
		credentials = append(credentials, &cred)
	}
	logger.Debugf("GetHolderCredentials: Found %d credentials for holder '%s'", len(credentials), holder)
	return credentials, nil
}

func summarizeEndorsements(endorsements []*model.Endorsement) *model.EndorsementSummary {
	summary := &model.EndorsementSummary{Endorsers: []string{}}
	var total uint64
	for _, e := range endorsements {
		summary.Count++
		total += e.Rating
		summary.Endorsers = append(summary.Endorsers, e.Endorser)
	}
	if summary.Count > 0 {
		summary.AverageRating = float64(total) / float64(summary.Count)
	}
	return summary
}
