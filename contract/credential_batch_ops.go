package contract

import (
	"scribe/model"

	"github.com/google/uuid"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// batchNamespace scopes batch ids derived from transaction ids.
var batchNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:scribe:credential-batch"))

// BatchIssueCredentials issues len(ids) credentials in the caller's institution namespace.
// Index i of every array describes one credential. Either every credential is written or none is.
func (s *ScribeSmartContract) BatchIssueCredentials(ctx contractapi.TransactionContextInterface,
	ids []string, holders []string, fieldsOfStudy []string, years []uint64, metadataURLs []string,
	expirations []uint64, degrees []string) (bool, error) {

	actor, err := getMutatingActorInfo(ctx)
	if err != nil {
		return false, err
	}

	requests, err := zipIssueRequests(ids, holders, fieldsOfStudy, years, metadataURLs, expirations, degrees)
	if err != nil {
		return false, err
	}

	if _, err := NewInstitutionManager(ctx).RequireActiveInstitution(actor.fullID); err != nil {
		return false, err
	}
	if err := NewDelegateManager(ctx).RequireAuthority(actor.fullID, actor, PermissionIssue); err != nil {
		return false, err
	}

	batchID := uuid.NewSHA1(batchNamespace, []byte(ctx.GetStub().GetTxID())).String()
	logger.Infof("Institution '%s' issuing batch '%s' of %d credentials", actor.fullID, batchID, len(requests))

	// Validate every item before the first write.
	pending := make([]*pendingCredential, 0, len(requests))
	seenKeys := make(map[string]int, len(requests))
	for i := range requests {
		field := describeIndex("credentials", i)
		item, err := s.prepareCredential(ctx, actor, actor.fullID, &requests[i], field, batchID)
		if err != nil {
			logger.Infof("BatchIssueCredentials: rejecting batch '%s' at index %d: %v", batchID, i, err)
			return false, err
		}
		if first, dup := seenKeys[item.key]; dup {
			return false, newLedgerError(CodeAlreadyExists, "%scredential '%s' for holder '%s' duplicates credentials[%d] in the same batch",
				field, requests[i].ID, requests[i].Holder, first)
		}
		seenKeys[item.key] = i
		pending = append(pending, item)
	}

	issued := make([]string, 0, len(pending))
	for _, item := range pending {
		if err := putStateJSON(ctx, item.key, item.credential); err != nil {
			return false, err
		}
		issued = append(issued, item.credential.ID)
	}

	emitLedgerEvent(ctx, "CredentialsBatchIssued", actor, map[string]interface{}{
		"batchId": batchID, "credentialIds": issued, "holders": holders, "institution": actor.fullID,
	})
	logger.Infof("BatchIssueCredentials: batch '%s' completed, %d credentials issued by '%s'", batchID, len(issued), actor.fullID)
	return true, nil
}

// zipIssueRequests assembles positionally aligned arrays into per-credential requests.
func zipIssueRequests(ids []string, holders []string, fieldsOfStudy []string, years []uint64,
	metadataURLs []string, expirations []uint64, degrees []string) ([]model.CredentialIssueRequest, error) {

	n := len(ids)
	lengths := []struct {
		name string
		n    int
	}{
		{"holders", len(holders)},
		{"fieldsOfStudy", len(fieldsOfStudy)},
		{"years", len(years)},
		{"metadataUrls", len(metadataURLs)},
		{"expirations", len(expirations)},
		{"degrees", len(degrees)},
	}
	for _, l := range lengths {
		if l.n != n {
			return nil, newLedgerError(CodeLengthMismatch, "%s has %d items but ids has %d", l.name, l.n, n)
		}
	}
	if n == 0 {
		return nil, newLedgerError(CodeInvalidArgument, "at least one credential must be specified")
	}
	if n > maxBatchSize {
		return nil, newLedgerError(CodeInvalidArgument, "batch has %d credentials, exceeding maximum of %d", n, maxBatchSize)
	}

	requests := make([]model.CredentialIssueRequest, n)
	for i := 0; i < n; i++ {
		requests[i] = model.CredentialIssueRequest{
			ID:           ids[i],
			Holder:       holders[i],
			FieldOfStudy: fieldsOfStudy[i],
			Year:         years[i],
			MetadataURL:  metadataURLs[i],
			ExpiresAt:    expirations[i],
			Degree:       degrees[i],
		}
	}
	return requests, nil
}
