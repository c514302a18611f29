package contract

import "testing"

func endorsementFixture(t *testing.T) *testLedger {
	t.Helper()
	l := newTestLedger(t)
	l.register(instA, "University A", 10)
	l.register(instB, "University B", 10)
	l.register(instC, "College C", 10)
	l.issue(instA, "C1", student, 0, 20)
	return l
}

func TestEndorseCredential(t *testing.T) {
	l := endorsementFixture(t)

	ok, err := l.contract.EndorseCredential(l.as(instB, 30), "C1", student, 5, "excellent program", "Academic")
	if err != nil || !ok {
		t.Fatalf("EndorseCredential: ok=%v err=%v", ok, err)
	}
	if events := l.drainEvents(); len(events) != 1 || events[0] != "CredentialEndorsed" {
		t.Fatalf("unexpected events %v", events)
	}
	if _, err := l.contract.EndorseCredential(l.as(instC, 31), "C1", student, 2, "", "Professional"); err != nil {
		t.Fatalf("EndorseCredential by instC: %v", err)
	}

	e, err := l.contract.GetEndorsement(l.as(stranger, 40), "C1", student, instB)
	if err != nil {
		t.Fatalf("GetEndorsement: %v", err)
	}
	if e.Rating != 5 || e.Comment != "excellent program" || e.Category != "Academic" || e.EndorsedAt != 30 || e.EndorsedBy != instB {
		t.Fatalf("unexpected endorsement %+v", e)
	}

	info, err := l.contract.GetCredentialInfo(l.as(stranger, 40), "C1", student)
	if err != nil || info == nil {
		t.Fatalf("GetCredentialInfo: %v", err)
	}
	if info.Endorsements.Count != 2 || info.Endorsements.AverageRating != 3.5 || len(info.Endorsements.Endorsers) != 2 {
		t.Fatalf("unexpected endorsement summary %+v", info.Endorsements)
	}
}

func TestEndorseCredentialOverwriteKeepsFirstEndorsement(t *testing.T) {
	l := endorsementFixture(t)
	if _, err := l.contract.EndorseCredential(l.as(instB, 30), "C1", student, 3, "good", "Academic"); err != nil {
		t.Fatalf("first endorsement: %v", err)
	}
	if _, err := l.contract.EndorseCredential(l.as(instB, 60), "C1", student, 4, "better", "Research"); err != nil {
		t.Fatalf("second endorsement: %v", err)
	}

	all, err := l.contract.GetCredentialEndorsements(l.as(stranger, 70), "C1", student)
	if err != nil {
		t.Fatalf("GetCredentialEndorsements: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("overwrite produced %d endorsements", len(all))
	}
	e := all[0]
	if e.Rating != 4 || e.Comment != "better" || e.Category != "Research" || e.EndorsedAt != 60 || e.FirstEndorsedAt != 30 {
		t.Fatalf("unexpected overwritten endorsement %+v", e)
	}
}

func TestEndorseCredentialRejections(t *testing.T) {
	l := endorsementFixture(t)

	_, err := l.contract.EndorseCredential(l.as(instB, 30), "C1", student, 6, "", "")
	expectCode(t, err, CodeInvalidRating)

	_, err = l.contract.EndorseCredential(l.as(instB, 30), "missing", student, 3, "", "")
	expectCode(t, err, CodeNotFound)

	_, err = l.contract.EndorseCredential(l.as(instA, 30), "C1", student, 5, "", "")
	expectCode(t, err, CodeSelfEndorsement)

	_, err = l.contract.EndorseCredential(l.as(stranger, 30), "C1", student, 3, "", "")
	expectCode(t, err, CodeNotAuthorized)

	if _, err := l.contract.RevokeCredential(l.as(instA, 40), "C1", student); err != nil {
		t.Fatalf("RevokeCredential: %v", err)
	}
	_, err = l.contract.EndorseCredential(l.as(instB, 50), "C1", student, 3, "", "")
	expectCode(t, err, CodeCredentialRevoked)

	if n := l.stateCount(endorsementObjectType); n != 0 {
		t.Fatalf("rejected endorsements were stored: %d", n)
	}
}

func TestEndorseCredentialBoundaryRatings(t *testing.T) {
	l := endorsementFixture(t)
	if _, err := l.contract.EndorseCredential(l.as(instB, 30), "C1", student, 0, "", ""); err != nil {
		t.Fatalf("rating 0: %v", err)
	}
	if _, err := l.contract.EndorseCredential(l.as(instC, 30), "C1", student, 5, "", ""); err != nil {
		t.Fatalf("rating 5: %v", err)
	}
}

func TestEndorseCredentialOnBehalf(t *testing.T) {
	l := endorsementFixture(t)
	l.grant(instB, delegate, []string{"ENDORSE"}, 100, 20)

	if _, err := l.contract.EndorseCredentialOnBehalf(l.as(delegate, 30), instB, "C1", student, 4, "via registrar", ""); err != nil {
		t.Fatalf("EndorseCredentialOnBehalf: %v", err)
	}
	e, err := l.contract.GetEndorsement(l.as(stranger, 31), "C1", student, instB)
	if err != nil {
		t.Fatalf("GetEndorsement: %v", err)
	}
	if e.Endorser != instB || e.EndorsedBy != delegate {
		t.Fatalf("unexpected parties %+v", e)
	}

	// The grant has expired.
	_, err = l.contract.EndorseCredentialOnBehalf(l.as(delegate, 100), instB, "C1", student, 1, "", "")
	expectCode(t, err, CodeNotAuthorized)

	// A delegate cannot endorse without the ENDORSE permission.
	l.grant(instC, delegate, []string{"ISSUE"}, 1000, 100)
	_, err = l.contract.EndorseCredentialOnBehalf(l.as(delegate, 101), instC, "C1", student, 1, "", "")
	expectCode(t, err, CodeNotAuthorized)
}

func TestGetEndorsementNotFound(t *testing.T) {
	l := endorsementFixture(t)
	_, err := l.contract.GetEndorsement(l.as(stranger, 30), "C1", student, instB)
	expectCode(t, err, CodeNotFound)
}
