package contract

import (
	"crypto/x509"
	"fmt"
	"testing"

	"github.com/hyperledger/fabric-chaincode-go/shimtest"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const (
	instA    = "x509::CN=university-a::CN=ca.org1"
	instB    = "x509::CN=university-b::CN=ca.org1"
	instC    = "x509::CN=college-c::CN=ca.org2"
	delegate = "x509::CN=registrar-d::CN=ca.org1"
	stranger = "x509::CN=stranger::CN=ca.org2"
	student  = "x509::CN=student-1::CN=ca.org1"
)

// fakeIdentity is a fixed cid.ClientIdentity.
type fakeIdentity struct {
	id  string
	msp string
}

func (f *fakeIdentity) GetID() (string, error)    { return f.id, nil }
func (f *fakeIdentity) GetMSPID() (string, error) { return f.msp, nil }
func (f *fakeIdentity) GetAttributeValue(string) (string, bool, error) {
	return "", false, nil
}
func (f *fakeIdentity) AssertAttributeValue(name, value string) error {
	return fmt.Errorf("attribute %s not found", name)
}
func (f *fakeIdentity) GetX509Certificate() (*x509.Certificate, error) { return nil, nil }

// testLedger drives ScribeSmartContract against one MockStub, one transaction per call.
type testLedger struct {
	t        *testing.T
	stub     *shimtest.MockStub
	contract *ScribeSmartContract
	txs      int
}

func newTestLedger(t *testing.T) *testLedger {
	t.Helper()
	return &testLedger{
		t:        t,
		stub:     shimtest.NewMockStub("scribe", nil),
		contract: &ScribeSmartContract{},
	}
}

// as opens a transaction by caller at ledger sequence seq.
func (l *testLedger) as(caller string, seq int64) *contractapi.TransactionContext {
	l.txs++
	l.drainEvents()
	l.stub.MockTransactionStart(fmt.Sprintf("tx-%d", l.txs))
	l.stub.TxTimestamp = &timestamppb.Timestamp{Seconds: seq}

	ctx := new(contractapi.TransactionContext)
	ctx.SetStub(l.stub)
	ctx.SetClientIdentity(&fakeIdentity{id: caller, msp: "Org1MSP"})
	return ctx
}

// drainEvents empties the stub's event channel and returns the names of the drained events.
func (l *testLedger) drainEvents() []string {
	var names []string
	for {
		select {
		case ev := <-l.stub.ChaincodeEventsChannel:
			names = append(names, ev.EventName)
		default:
			return names
		}
	}
}

func (l *testLedger) register(identity, name string, seq int64) {
	l.t.Helper()
	if _, err := l.contract.RegisterInstitution(l.as(identity, seq), name); err != nil {
		l.t.Fatalf("RegisterInstitution(%s): %v", name, err)
	}
}

func (l *testLedger) grant(institution, to string, perms []string, expiration uint64, seq int64) {
	l.t.Helper()
	if _, err := l.contract.AddDelegate(l.as(institution, seq), to, perms, expiration); err != nil {
		l.t.Fatalf("AddDelegate(%s -> %s): %v", institution, to, err)
	}
}

func (l *testLedger) issue(institution, id, holder string, expiresAt uint64, seq int64) {
	l.t.Helper()
	if _, err := l.contract.IssueCredential(l.as(institution, seq), id, holder, "Computer Science", 2024, "ipfs://meta/"+id, expiresAt, "Bachelor"); err != nil {
		l.t.Fatalf("IssueCredential(%s): %v", id, err)
	}
}

func (l *testLedger) stateCount(objectType string) int {
	l.t.Helper()
	it, err := l.stub.GetStateByPartialCompositeKey(objectType, []string{})
	if err != nil {
		l.t.Fatalf("GetStateByPartialCompositeKey(%s): %v", objectType, err)
	}
	defer it.Close()
	n := 0
	for it.HasNext() {
		if _, err := it.Next(); err != nil {
			l.t.Fatalf("iterate %s: %v", objectType, err)
		}
		n++
	}
	return n
}

func expectCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code.Tag())
	}
	if !IsCode(err, code) {
		t.Fatalf("expected %s error, got %v", code.Tag(), err)
	}
}
