package contract

import "testing"

func TestRegisterInstitution(t *testing.T) {
	l := newTestLedger(t)

	ok, err := l.contract.RegisterInstitution(l.as(instA, 100), "University A")
	if err != nil || !ok {
		t.Fatalf("RegisterInstitution: ok=%v err=%v", ok, err)
	}
	if events := l.drainEvents(); len(events) != 1 || events[0] != "InstitutionRegistered" {
		t.Fatalf("unexpected events %v", events)
	}

	inst, err := l.contract.GetInstitution(l.as(stranger, 101), instA)
	if err != nil {
		t.Fatalf("GetInstitution: %v", err)
	}
	if inst.Name != "University A" || inst.RegisteredAt != 100 || !inst.Active || inst.OrganizationMSP != "Org1MSP" {
		t.Fatalf("unexpected institution %+v", inst)
	}

	registered, err := l.contract.IsRegisteredInstitution(l.as(stranger, 102), instA)
	if err != nil || !registered {
		t.Fatalf("IsRegisteredInstitution(instA) = %v, %v", registered, err)
	}
	registered, err = l.contract.IsRegisteredInstitution(l.as(stranger, 102), stranger)
	if err != nil || registered {
		t.Fatalf("IsRegisteredInstitution(stranger) = %v, %v", registered, err)
	}
}

func TestRegisterInstitutionTwiceKeepsOriginalName(t *testing.T) {
	l := newTestLedger(t)
	l.register(instA, "University A", 100)

	_, err := l.contract.RegisterInstitution(l.as(instA, 200), "Renamed")
	expectCode(t, err, CodeAlreadyRegistered)

	inst, err := l.contract.GetInstitution(l.as(instA, 201), instA)
	if err != nil {
		t.Fatalf("GetInstitution: %v", err)
	}
	if inst.Name != "University A" || inst.RegisteredAt != 100 {
		t.Fatalf("record changed by repeat registration: %+v", inst)
	}
}

func TestRegisterInstitutionValidatesName(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.contract.RegisterInstitution(l.as(instA, 100), "  ")
	expectCode(t, err, CodeInvalidArgument)

	long := make([]byte, maxNameLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = l.contract.RegisterInstitution(l.as(instA, 100), string(long))
	expectCode(t, err, CodeInvalidArgument)

	if n := l.stateCount(institutionObjectType); n != 0 {
		t.Fatalf("expected no institutions, found %d", n)
	}
}

func TestGetInstitutionNotFound(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.contract.GetInstitution(l.as(stranger, 1), instA)
	expectCode(t, err, CodeNotFound)
}

func TestGetAllInstitutions(t *testing.T) {
	l := newTestLedger(t)
	l.register(instA, "University A", 10)
	l.register(instB, "University B", 11)

	all, err := l.contract.GetAllInstitutions(l.as(stranger, 12))
	if err != nil {
		t.Fatalf("GetAllInstitutions: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 institutions, got %d", len(all))
	}
	names := map[string]bool{}
	for _, inst := range all {
		names[inst.Name] = true
	}
	if !names["University A"] || !names["University B"] {
		t.Fatalf("unexpected institutions %+v", all)
	}
}

func TestGetCallerInfo(t *testing.T) {
	l := newTestLedger(t)
	l.register(instA, "University A", 10)

	info, err := l.contract.GetCallerInfo(l.as(instA, 42))
	if err != nil {
		t.Fatalf("GetCallerInfo: %v", err)
	}
	if info["identity"] != instA || info["sequence"] != "42" || info["isRegistered"] != "true" || info["institutionName"] != "University A" {
		t.Fatalf("unexpected caller info %v", info)
	}

	info, err = l.contract.GetCallerInfo(l.as(student, 43))
	if err != nil {
		t.Fatalf("GetCallerInfo: %v", err)
	}
	if info["isRegistered"] != "false" {
		t.Fatalf("unexpected caller info %v", info)
	}
}
