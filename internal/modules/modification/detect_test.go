package modification

import "testing"

func TestDetect(t *testing.T) {
	cases := []struct {
		in   string
		want Request
	}{
		{"add Rome", Request{Type: TypeAddDestination, Target: "Rome"}},
		{"add Nice for 2 days", Request{Type: TypeAddDestination, Target: "Nice", Days: 2}},
		{"remove Nice", Request{Type: TypeRemoveDestination, Target: "Nice"}},
		{"add Barcelona for 4 days after Paris", Request{Type: TypeAddDestination, Target: "Barcelona", Days: 4, Placement: "after", Anchor: "Paris"}},
		{"please remove Rome", Request{Type: TypeRemoveDestination, Target: "Rome"}},
		{"skip lisbon", Request{Type: TypeRemoveDestination, Target: "Lisbon"}},
		{"change Paris to 5 days", Request{Type: TypeChangeDuration, Target: "Paris", Days: 5}},
		{"shorten Rome by 1 day", Request{Type: TypeChangeDuration, Target: "Rome", Days: -1, Relative: true}},
		{"add 2 days to Paris", Request{Type: TypeChangeDuration, Target: "Paris", Days: 2, Relative: true}},
		{"spend 4 days in Madrid", Request{Type: TypeChangeDuration, Target: "Madrid", Days: 4}},
		{"replace Rome with Florence", Request{Type: TypeReplaceDestination, Target: "Rome", Value: "Florence"}},
		{"let's visit Naples instead of Rome", Request{Type: TypeReplaceDestination, Target: "Rome", Value: "Naples"}},
		{"change Rome to Florence", Request{Type: TypeReplaceDestination, Target: "Rome", Value: "Florence"}},
		{"make it more relaxed", Request{Type: TypeUpdatePreferences, Target: "style", Value: "more relaxed"}},
		{"start on 2026-12-01", Request{Type: TypeAdjustDates, Value: "2026-12-01"}},
		{"push the trip back by 1 week", Request{Type: TypeAdjustDates, Days: 7, Relative: true}},
		{"bring the trip forward by 2 days", Request{Type: TypeAdjustDates, Days: -2, Relative: true}},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := Detect(tc.in)
			if !ok {
				t.Fatalf("Detect(%q) found nothing", tc.in)
			}
			got.Context, got.verbCue = "", false
			if got != tc.want {
				t.Errorf("Detect(%q) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestDetectIgnoresPlainText(t *testing.T) {
	for _, in := range []string{"", "hello", "what should I pack?"} {
		if _, ok := Detect(in); ok {
			t.Errorf("Detect(%q) matched", in)
		}
	}
}

func TestConfidence(t *testing.T) {
	full, _ := Detect("change Paris to 5 days")
	if got := Confidence(full); got != 0.95 {
		t.Errorf("confidence = %v, want 0.95", got)
	}
	vague, _ := Detect("stay longer in Paris")
	if got := Confidence(vague); got != 0.8 {
		t.Errorf("confidence = %v, want 0.8", got)
	}
}
