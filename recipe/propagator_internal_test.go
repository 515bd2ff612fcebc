package recipe

import "testing"

func TestFinalGroupOutcome_AllPolicies(t *testing.T) {
	cases := []struct {
		policy   Policy
		outcomes []DoneWith // effective outcomes observed from children, in order
		want     DoneWith
	}{
		{StopOnError, []DoneWith{DoneWithSuccess, DoneWithSuccess}, DoneWithSuccess},
		{StopOnError, []DoneWith{DoneWithSuccess, DoneWithError}, DoneWithError},
		{StopOnError, nil, DoneWithSuccess}, // empty group tie-break

		{ContinueOnError, []DoneWith{DoneWithError, DoneWithSuccess}, DoneWithError},
		{ContinueOnError, []DoneWith{DoneWithSuccess, DoneWithSuccess}, DoneWithSuccess},
		{ContinueOnError, nil, DoneWithSuccess},

		{StopOnSuccess, []DoneWith{DoneWithError, DoneWithSuccess}, DoneWithSuccess},
		{StopOnSuccess, []DoneWith{DoneWithError, DoneWithError}, DoneWithError},
		{StopOnSuccess, nil, DoneWithError},

		{ContinueOnSuccess, []DoneWith{DoneWithError, DoneWithSuccess}, DoneWithSuccess},
		{ContinueOnSuccess, []DoneWith{DoneWithError}, DoneWithError},
		{ContinueOnSuccess, nil, DoneWithError},

		{StopOnSuccessOrError, []DoneWith{DoneWithError}, DoneWithError},
		{StopOnSuccessOrError, []DoneWith{DoneWithSuccess}, DoneWithSuccess},
		{StopOnSuccessOrError, nil, DoneWithError},

		{FinishAllAndSuccess, []DoneWith{DoneWithError, DoneWithSuccess}, DoneWithSuccess},
		{FinishAllAndSuccess, nil, DoneWithSuccess},

		{FinishAllAndError, []DoneWith{DoneWithSuccess, DoneWithSuccess}, DoneWithError},
		{FinishAllAndError, nil, DoneWithError},
	}

	for _, tc := range cases {
		n := &runtimeNode{group: &Group{Policy: tc.policy}}
		for _, o := range tc.outcomes {
			n.stopOnChildOutcome(o)
		}
		got := n.finalGroupOutcome()
		if got != tc.want {
			t.Errorf("policy %v outcomes %v: finalGroupOutcome = %v, want %v", tc.policy, tc.outcomes, got, tc.want)
		}
	}
}

func TestFinalGroupOutcome_FinishAllAndSuccessCancelOverride(t *testing.T) {
	n := &runtimeNode{group: &Group{Policy: FinishAllAndSuccess}}
	n.stopOnChildOutcome(DoneWithSuccess)
	n.anyChildCanceled = true
	if got := n.finalGroupOutcome(); got != DoneWithError {
		t.Errorf("FinishAllAndSuccess with a cancelled child = %v, want Error", got)
	}
}

func TestStopOnChildOutcome_StopsOnlyOnMatchingPolicy(t *testing.T) {
	cases := []struct {
		policy Policy
		e      DoneWith
		stop   bool
	}{
		{StopOnError, DoneWithError, true},
		{StopOnError, DoneWithSuccess, false},
		{StopOnSuccess, DoneWithSuccess, true},
		{StopOnSuccess, DoneWithError, false},
		{StopOnSuccessOrError, DoneWithSuccess, true},
		{StopOnSuccessOrError, DoneWithError, true},
		{ContinueOnError, DoneWithError, false},
		{ContinueOnSuccess, DoneWithSuccess, false},
		{FinishAllAndSuccess, DoneWithError, false},
		{FinishAllAndError, DoneWithSuccess, false},
	}
	for _, tc := range cases {
		n := &runtimeNode{group: &Group{Policy: tc.policy}}
		if got := n.stopOnChildOutcome(tc.e); got != tc.stop {
			t.Errorf("policy %v outcome %v: stop = %v, want %v", tc.policy, tc.e, got, tc.stop)
		}
	}
}

func TestEffectiveOutcome(t *testing.T) {
	cases := []struct {
		natural DoneWith
		result  DoneResult
		want    DoneWith
	}{
		{DoneWithSuccess, DoneUnspecified, DoneWithSuccess},
		{DoneWithError, DoneUnspecified, DoneWithError},
		{DoneWithCancel, DoneUnspecified, DoneWithError}, // cancel defaults to error for propagation
		{DoneWithCancel, DoneSuccess, DoneWithSuccess},   // handler can rewrite a cancel to success
		{DoneWithSuccess, DoneError, DoneWithError},
	}
	for _, tc := range cases {
		if got := effectiveOutcome(tc.natural, tc.result); got != tc.want {
			t.Errorf("effectiveOutcome(%v, %v) = %v, want %v", tc.natural, tc.result, got, tc.want)
		}
	}
}
