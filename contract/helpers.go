package contract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"scribe/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// --- Core Helper Methods (used across multiple operations) ---

// txSequence returns the sequence the submitting client stamped on the running transaction.
// The peer stamps every transaction with a timestamp; its Unix seconds are the raw sequence.
func txSequence(ctx contractapi.TransactionContextInterface) (uint64, error) {
	ts, err := ctx.GetStub().GetTxTimestamp()
	if err != nil {
		return 0, ledgerFailure(err, "failed to get transaction timestamp")
	}
	if ts == nil || ts.GetSeconds() < 0 {
		return 0, newLedgerError(CodeLedgerFailure, "transaction timestamp is missing or precedes the epoch")
	}
	return uint64(ts.GetSeconds()), nil
}

// sequenceHighWaterMark returns the highest sequence a mutation has committed, with its key.
func sequenceHighWaterMark(ctx contractapi.TransactionContextInterface) (uint64, string, error) {
	key, err := ctx.GetStub().CreateCompositeKey(sequenceObjectType, []string{})
	if err != nil {
		return 0, "", ledgerFailure(err, "failed to create ledger sequence key")
	}
	raw, err := ctx.GetStub().GetState(key)
	if err != nil {
		return 0, "", ledgerFailure(err, "failed to read ledger sequence")
	}
	if raw == nil {
		return 0, key, nil
	}
	hwm, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, "", ledgerFailure(err, "ledger sequence %q is corrupt", raw)
	}
	return hwm, key, nil
}

// currentSequence is the sequence read-only operations evaluate expiry at. A backdated
// timestamp never moves it below what the ledger has already committed.
func currentSequence(ctx contractapi.TransactionContextInterface) (uint64, error) {
	seq, err := txSequence(ctx)
	if err != nil {
		return 0, err
	}
	hwm, _, err := sequenceHighWaterMark(ctx)
	if err != nil {
		return 0, err
	}
	if hwm > seq {
		return hwm, nil
	}
	return seq, nil
}

// advanceSequence admits a mutating transaction. Its sequence must not precede the ledger's
// high-water mark, which it then raises to the transaction's sequence.
func advanceSequence(ctx contractapi.TransactionContextInterface) (uint64, error) {
	seq, err := txSequence(ctx)
	if err != nil {
		return 0, err
	}
	hwm, key, err := sequenceHighWaterMark(ctx)
	if err != nil {
		return 0, err
	}
	if seq < hwm {
		return 0, newLedgerError(CodeStaleSequence, "transaction sequence %d precedes the ledger sequence %d", seq, hwm)
	}
	if seq > hwm {
		if err := ctx.GetStub().PutState(key, []byte(strconv.FormatUint(seq, 10))); err != nil {
			return 0, ledgerFailure(err, "failed to advance ledger sequence to %d", seq)
		}
	}
	return seq, nil
}

// getCurrentActorInfo resolves the authenticated caller for a read-only operation.
func getCurrentActorInfo(ctx contractapi.TransactionContextInterface) (*actorInfo, error) {
	return resolveActor(ctx, currentSequence)
}

// getMutatingActorInfo resolves the caller of an operation that writes state and advances the
// ledger sequence.
func getMutatingActorInfo(ctx contractapi.TransactionContextInterface) (*actorInfo, error) {
	return resolveActor(ctx, advanceSequence)
}

func resolveActor(ctx contractapi.TransactionContextInterface, sequence func(contractapi.TransactionContextInterface) (uint64, error)) (*actorInfo, error) {
	fullID, err := NewInstitutionManager(ctx).GetCurrentIdentity()
	if err != nil {
		return nil, err
	}
	mspID := ""
	if clientIdentity := ctx.GetClientIdentity(); clientIdentity != nil {
		if id, mspErr := clientIdentity.GetMSPID(); mspErr == nil {
			mspID = id
		} else {
			logger.Debugf("Could not determine MSPID for caller %s: %v", fullID, mspErr)
		}
	}
	seq, err := sequence(ctx)
	if err != nil {
		return nil, err
	}
	return &actorInfo{fullID: fullID, mspID: mspID, sequence: seq}, nil
}

// --- Key Creation Helpers (using Composite Keys) ---

// Credentials are keyed holder-first so a holder's credentials share a partial key.
func createCredentialCompositeKey(ctx contractapi.TransactionContextInterface, credentialID, holder string) (string, error) {
	return ctx.GetStub().CreateCompositeKey(credentialObjectType, []string{holder, credentialID})
}

func createEndorsementCompositeKey(ctx contractapi.TransactionContextInterface, credentialID, holder, endorser string) (string, error) {
	return ctx.GetStub().CreateCompositeKey(endorsementObjectType, []string{holder, credentialID, endorser})
}

// --- Validation Helper Functions ---

func validateRequiredString(input, field string, max int) error {
	if strings.TrimSpace(input) == "" {
		return newLedgerError(CodeInvalidArgument, "%s cannot be empty", field)
	}
	return validateOptionalString(input, field, max)
}

// validateOptionalString also rejects text that cannot be a composite key attribute.
func validateOptionalString(input, field string, max int) error {
	if len(input) > max {
		return newLedgerError(CodeInvalidArgument, "%s exceeds max length %d", field, max)
	}
	if !utf8.ValidString(input) {
		return newLedgerError(CodeInvalidArgument, "%s is not valid UTF-8", field)
	}
	if strings.ContainsRune(input, 0) || strings.ContainsRune(input, utf8.MaxRune) {
		return newLedgerError(CodeInvalidArgument, "%s contains a reserved character", field)
	}
	return nil
}

// validateIssueRequest checks the per-credential fields shared by single and batch issuance.
func validateIssueRequest(req *model.CredentialIssueRequest, field string, seq uint64) error {
	if err := validateRequiredString(req.ID, field+"id", maxIDLength); err != nil {
		return err
	}
	if err := validateRequiredString(req.Holder, field+"holder", maxIdentityLength); err != nil {
		return err
	}
	if err := validateRequiredString(req.FieldOfStudy, field+"fieldOfStudy", maxStringInputLength); err != nil {
		return err
	}
	if req.Year == 0 || req.Year > maxCredentialYear {
		return newLedgerError(CodeInvalidArgument, "%syear must be between 1 and %d, got %d", field, maxCredentialYear, req.Year)
	}
	if err := validateOptionalString(req.MetadataURL, field+"metadataUrl", maxMetadataLength); err != nil {
		return err
	}
	if err := validateRequiredString(req.Degree, field+"degree", maxLabelLength); err != nil {
		return err
	}
	if req.ExpiresAt != 0 && req.ExpiresAt <= seq {
		return newLedgerError(CodeInvalidExpiration, "%sexpiresAt %d must be 0 or greater than the current sequence %d", field, req.ExpiresAt, seq)
	}
	return nil
}

// --- State Helpers ---

// getStateJSON reads key into out. It reports false when the key is absent.
func getStateJSON(ctx contractapi.TransactionContextInterface, key string, out interface{}) (bool, error) {
	raw, err := ctx.GetStub().GetState(key)
	if err != nil {
		return false, ledgerFailure(err, "failed to read state for key '%s'", key)
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, ledgerFailure(err, "failed to unmarshal state for key '%s'", key)
	}
	return true, nil
}

func putStateJSON(ctx contractapi.TransactionContextInterface, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return ledgerFailure(err, "failed to marshal state for key '%s'", key)
	}
	if err := ctx.GetStub().PutState(key, raw); err != nil {
		return ledgerFailure(err, "failed to save state for key '%s'", key)
	}
	return nil
}

// --- Tamper Evidence ---

// credentialDigest returns a CIDv1 (raw codec, sha2-256) over the canonical issuance fields.
func credentialDigest(cred *model.Credential) (string, error) {
	canonical, err := json.Marshal(model.CredentialDigestFields{
		ID:           cred.ID,
		Holder:       cred.Holder,
		Institution:  cred.Institution,
		FieldOfStudy: cred.FieldOfStudy,
		Year:         cred.Year,
		MetadataURL:  cred.MetadataURL,
		Degree:       cred.Degree,
		IssuedAt:     cred.IssuedAt,
		ExpiresAt:    cred.ExpiresAt,
	})
	if err != nil {
		return "", ledgerFailure(err, "failed to canonicalize credential '%s'", cred.ID)
	}
	sum, err := multihash.Sum(canonical, multihash.SHA2_256, -1)
	if err != nil {
		return "", ledgerFailure(err, "failed to hash credential '%s'", cred.ID)
	}
	return cid.NewCidV1(cid.Raw, sum).String(), nil
}

// --- Other General Helper Methods ---

func ensureDelegateGrantSchemaCompliance(grant *model.DelegateGrant) {
	if grant != nil && grant.Permissions == nil {
		grant.Permissions = []string{}
	}
}

// emitLedgerEvent sets the transaction's chaincode event. Fabric keeps a single event per
// transaction, so each operation emits exactly once.
func emitLedgerEvent(ctx contractapi.TransactionContextInterface, eventName string, actor *actorInfo, payload map[string]interface{}) {
	if actor == nil {
		logger.Errorf("emitLedgerEvent: cannot emit event '%s', actor is nil", eventName)
		return
	}
	body := map[string]interface{}{
		"actor":    actor.fullID,
		"actorMsp": actor.mspID,
		"sequence": actor.sequence,
		"txId":     ctx.GetStub().GetTxID(),
	}
	for k, v := range payload {
		body[k] = v
	}
	eventBytes, err := json.Marshal(body)
	if err != nil {
		logger.Warningf("emitLedgerEvent: Failed to marshal event payload for event '%s': %v", eventName, err)
		return
	}
	if errSet := ctx.GetStub().SetEvent(eventName, eventBytes); errSet != nil {
		logger.Warningf("emitLedgerEvent: Failed to set event '%s': %v", eventName, errSet)
	}
}

func describeIndex(field string, i int) string {
	return fmt.Sprintf("%s[%d].", field, i)
}
