package contract

import (
	"encoding/json"

	"scribe/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var authLogger = flogging.MustGetLogger("scribe.authority")

// DelegateManager stores delegate grants and resolves who may act for an institution.
type DelegateManager struct {
	Ctx contractapi.TransactionContextInterface
}

// NewDelegateManager creates a new instance of DelegateManager.
func NewDelegateManager(ctx contractapi.TransactionContextInterface) *DelegateManager {
	return &DelegateManager{Ctx: ctx}
}

func (dm *DelegateManager) createDelegateCompositeKey(institution, delegate string) (string, error) {
	return dm.Ctx.GetStub().CreateCompositeKey(delegateObjectType, []string{institution, delegate})
}

// Authorize decides whether caller may perform action for institution at sequence seq.
// grant is the stored grant for (institution, caller), or nil.
func Authorize(institution, caller string, action Permission, grant *model.DelegateGrant, seq uint64) bool {
	if caller == institution {
		return true
	}
	if grant == nil || grant.Institution != institution || grant.Delegate != caller {
		return false
	}
	if seq >= grant.ExpiresAt {
		return false
	}
	return hasPermission(grant.Permissions, action)
}

// AddDelegate grants delegate the given permissions on the caller's institution.
// A repeat grant for the same delegate replaces permissions and expiration wholesale.
func (dm *DelegateManager) AddDelegate(delegate string, permissions []string, expiration uint64) error {
	actor, err := getMutatingActorInfo(dm.Ctx)
	if err != nil {
		return err
	}
	if _, err := NewInstitutionManager(dm.Ctx).RequireActiveInstitution(actor.fullID); err != nil {
		return err
	}

	if err := validateRequiredString(delegate, "delegate", maxIdentityLength); err != nil {
		return err
	}
	if delegate == actor.fullID {
		return newLedgerError(CodeInvalidArgument, "an institution cannot name itself as its own delegate")
	}
	perms, err := ParsePermissions(permissions)
	if err != nil {
		return err
	}
	if expiration <= actor.sequence {
		return newLedgerError(CodeInvalidExpiration, "expiration %d must be greater than the current sequence %d", expiration, actor.sequence)
	}

	grant := model.DelegateGrant{
		ObjectType:  delegateObjectType,
		Institution: actor.fullID,
		Delegate:    delegate,
		Permissions: permissionStrings(perms),
		ExpiresAt:   expiration,
		GrantedAt:   actor.sequence,
	}
	key, err := dm.createDelegateCompositeKey(actor.fullID, delegate)
	if err != nil {
		return ledgerFailure(err, "failed to create delegate composite key for '%s'", delegate)
	}
	if err := putStateJSON(dm.Ctx, key, grant); err != nil {
		return err
	}

	emitLedgerEvent(dm.Ctx, "DelegateGranted", actor, map[string]interface{}{
		"delegate": delegate, "permissions": grant.Permissions, "expiresAt": expiration,
	})
	authLogger.Infof("Institution '%s' granted %v to delegate '%s' until sequence %d", actor.fullID, grant.Permissions, delegate, expiration)
	return nil
}

// GetDelegate returns the stored grant for (institution, delegate), expired or not, or nil.
func (dm *DelegateManager) GetDelegate(institution, delegate string) (*model.DelegateGrant, error) {
	key, err := dm.createDelegateCompositeKey(institution, delegate)
	if err != nil {
		return nil, ledgerFailure(err, "failed to create delegate composite key for '%s'", delegate)
	}
	var grant model.DelegateGrant
	found, err := getStateJSON(dm.Ctx, key, &grant)
	if err != nil || !found {
		return nil, err
	}
	ensureDelegateGrantSchemaCompliance(&grant)
	return &grant, nil
}

// GetDelegateView returns the grant projected at the current sequence.
func (dm *DelegateManager) GetDelegateView(institution, delegate string) (*model.DelegateGrantView, error) {
	if err := validateRequiredString(institution, "institution", maxIdentityLength); err != nil {
		return nil, err
	}
	if err := validateRequiredString(delegate, "delegate", maxIdentityLength); err != nil {
		return nil, err
	}
	seq, err := currentSequence(dm.Ctx)
	if err != nil {
		return nil, err
	}
	grant, err := dm.GetDelegate(institution, delegate)
	if err != nil {
		return nil, err
	}
	if grant == nil {
		return nil, newLedgerError(CodeNotFound, "no delegate grant for '%s' on institution '%s'", delegate, institution)
	}
	return &model.DelegateGrantView{Grant: *grant, Active: seq < grant.ExpiresAt, ReadAt: seq}, nil
}

// GetInstitutionDelegates lists every grant an institution has made, including expired ones.
func (dm *DelegateManager) GetInstitutionDelegates(institution string) ([]model.DelegateGrantView, error) {
	if err := validateRequiredString(institution, "institution", maxIdentityLength); err != nil {
		return nil, err
	}
	seq, err := currentSequence(dm.Ctx)
	if err != nil {
		return nil, err
	}
	resultsIterator, err := dm.Ctx.GetStub().GetStateByPartialCompositeKey(delegateObjectType, []string{institution})
	if err != nil {
		return nil, ledgerFailure(err, "failed to get delegates iterator for institution '%s'", institution)
	}
	defer resultsIterator.Close()

	views := []model.DelegateGrantView{}
	for resultsIterator.HasNext() {
		queryResponse, iterErr := resultsIterator.Next()
		if iterErr != nil {
			return nil, ledgerFailure(iterErr, "failed to iterate delegates of '%s'", institution)
		}
		var grant model.DelegateGrant
		if err := json.Unmarshal(queryResponse.Value, &grant); err != nil {
			return nil, ledgerFailure(err, "failed to unmarshal delegate grant at key '%s'", queryResponse.Key)
		}
		ensureDelegateGrantSchemaCompliance(&grant)
		views = append(views, model.DelegateGrantView{Grant: grant, Active: seq < grant.ExpiresAt, ReadAt: seq})
	}
	return views, nil
}

// RequireAuthority fails with NOT-AUTHORIZED unless actor may perform action for institution.
func (dm *DelegateManager) RequireAuthority(institution string, actor *actorInfo, action Permission) error {
	var grant *model.DelegateGrant
	if actor.fullID != institution {
		var err error
		grant, err = dm.GetDelegate(institution, actor.fullID)
		if err != nil {
			return err
		}
	}
	if !Authorize(institution, actor.fullID, action, grant, actor.sequence) {
		if grant != nil && actor.sequence >= grant.ExpiresAt {
			authLogger.Infof("Denied %s for '%s' on '%s': grant expired at %d (sequence %d)", action, actor.fullID, institution, grant.ExpiresAt, actor.sequence)
			return newLedgerError(CodeNotAuthorized, "delegate grant of '%s' for institution '%s' expired at sequence %d", actor.fullID, institution, grant.ExpiresAt)
		}
		authLogger.Infof("Denied %s for '%s' on '%s'", action, actor.fullID, institution)
		return newLedgerError(CodeNotAuthorized, "caller '%s' may not %s for institution '%s'", actor.fullID, action, institution)
	}
	authLogger.Debugf("Authorized %s for '%s' on '%s'", action, actor.fullID, institution)
	return nil
}
