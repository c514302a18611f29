package contract

import (
	"scribe/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Lifecycle: Issuance and Revocation ---

// IssueCredential issues a credential in the caller's own institution namespace.
// expiresAt is the sequence at which the credential stops being valid; 0 means never.
func (s *ScribeSmartContract) IssueCredential(ctx contractapi.TransactionContextInterface,
	credentialID string, holder string, fieldOfStudy string, year uint64, metadataURL string,
	expiresAt uint64, degree string) (bool, error) {

	actor, err := getMutatingActorInfo(ctx)
	if err != nil {
		return false, err
	}
	req := &model.CredentialIssueRequest{
		ID: credentialID, Holder: holder, FieldOfStudy: fieldOfStudy, Year: year,
		MetadataURL: metadataURL, ExpiresAt: expiresAt, Degree: degree,
	}
	if err := s.issueCredential(ctx, actor, actor.fullID, req); err != nil {
		return false, err
	}
	return true, nil
}

// IssueCredentialOnBehalf issues a credential for institution with the caller acting as its delegate.
func (s *ScribeSmartContract) IssueCredentialOnBehalf(ctx contractapi.TransactionContextInterface,
	institution string, credentialID string, holder string, fieldOfStudy string, year uint64,
	metadataURL string, expiresAt uint64, degree string) (bool, error) {

	actor, err := getMutatingActorInfo(ctx)
	if err != nil {
		return false, err
	}
	if err := validateRequiredString(institution, "institution", maxIdentityLength); err != nil {
		return false, err
	}
	req := &model.CredentialIssueRequest{
		ID: credentialID, Holder: holder, FieldOfStudy: fieldOfStudy, Year: year,
		MetadataURL: metadataURL, ExpiresAt: expiresAt, Degree: degree,
	}
	if err := s.issueCredential(ctx, actor, institution, req); err != nil {
		return false, err
	}
	return true, nil
}

func (s *ScribeSmartContract) issueCredential(ctx contractapi.TransactionContextInterface, actor *actorInfo, institution string, req *model.CredentialIssueRequest) error {
	if _, err := NewInstitutionManager(ctx).RequireActiveInstitution(institution); err != nil {
		return err
	}
	if err := NewDelegateManager(ctx).RequireAuthority(institution, actor, PermissionIssue); err != nil {
		return err
	}

	logger.Infof("'%s' issuing credential '%s' to '%s' for institution '%s'", actor.fullID, req.ID, req.Holder, institution)

	pending, err := s.prepareCredential(ctx, actor, institution, req, "", "")
	if err != nil {
		return err
	}
	if err := putStateJSON(ctx, pending.key, pending.credential); err != nil {
		return err
	}

	emitLedgerEvent(ctx, "CredentialIssued", actor, map[string]interface{}{
		"credentialId": req.ID, "holder": req.Holder, "institution": institution, "digest": pending.credential.Digest,
	})
	logger.Infof("Credential '%s' issued to '%s' by institution '%s' at sequence %d", req.ID, req.Holder, institution, actor.sequence)
	return nil
}

// pendingCredential is a validated credential that has not been written yet.
type pendingCredential struct {
	key        string
	credential *model.Credential
}

// prepareCredential validates req and checks the (id, holder) uniqueness invariant against the
// ledger without writing anything.
func (s *ScribeSmartContract) prepareCredential(ctx contractapi.TransactionContextInterface, actor *actorInfo,
	institution string, req *model.CredentialIssueRequest, field string, batchID string) (*pendingCredential, error) {

	if err := validateIssueRequest(req, field, actor.sequence); err != nil {
		return nil, err
	}

	key, err := createCredentialCompositeKey(ctx, req.ID, req.Holder)
	if err != nil {
		return nil, ledgerFailure(err, "failed to create composite key for credential '%s'", req.ID)
	}
	existing, err := ctx.GetStub().GetState(key)
	if err != nil {
		return nil, ledgerFailure(err, "failed to check for existing credential '%s'", req.ID)
	}
	if existing != nil {
		return nil, newLedgerError(CodeAlreadyExists, "%scredential '%s' already exists for holder '%s'", field, req.ID, req.Holder)
	}

	cred := &model.Credential{
		ObjectType:   credentialObjectType,
		ID:           req.ID,
		Holder:       req.Holder,
		Institution:  institution,
		IssuedBy:     actor.fullID,
		FieldOfStudy: req.FieldOfStudy,
		Year:         req.Year,
		MetadataURL:  req.MetadataURL,
		Degree:       req.Degree,
		IssuedAt:     actor.sequence,
		ExpiresAt:    req.ExpiresAt,
		BatchID:      batchID,
	}
	digest, err := credentialDigest(cred)
	if err != nil {
		return nil, err
	}
	cred.Digest = digest
	return &pendingCredential{key: key, credential: cred}, nil
}

// RevokeCredential marks a credential revoked. The caller needs REVOKE authority over the
// credential's issuing institution. A revoked credential cannot be revoked again.
func (s *ScribeSmartContract) RevokeCredential(ctx contractapi.TransactionContextInterface, credentialID, holder string) (bool, error) {
	actor, err := getMutatingActorInfo(ctx)
	if err != nil {
		return false, err
	}
	if err := validateRequiredString(credentialID, "credentialId", maxIDLength); err != nil {
		return false, err
	}
	if err := validateRequiredString(holder, "holder", maxIdentityLength); err != nil {
		return false, err
	}

	cred, key, err := s.getCredential(ctx, credentialID, holder)
	if err != nil {
		return false, err
	}
	if cred == nil {
		return false, newLedgerError(CodeNotFound, "credential '%s' does not exist for holder '%s'", credentialID, holder)
	}

	if err := NewDelegateManager(ctx).RequireAuthority(cred.Institution, actor, PermissionRevoke); err != nil {
		return false, err
	}
	if cred.Revoked {
		return false, newLedgerError(CodeAlreadyRevoked, "credential '%s' of holder '%s' was already revoked at sequence %d", credentialID, holder, cred.RevokedAt)
	}

	cred.Revoked = true
	cred.RevokedAt = actor.sequence
	cred.RevokedBy = actor.fullID
	if err := putStateJSON(ctx, key, cred); err != nil {
		return false, err
	}

	emitLedgerEvent(ctx, "CredentialRevoked", actor, map[string]interface{}{
		"credentialId": credentialID, "holder": holder, "institution": cred.Institution,
	})
	logger.Infof("Credential '%s' of '%s' revoked by '%s' at sequence %d", credentialID, holder, actor.fullID, actor.sequence)
	return true, nil
}
