package pipeline

import (
	"context"
	"testing"

	"legislative-ai-assist/models"
)

func TestRouteGreetingFastPath(t *testing.T) {
	caller := &fakeModelCaller{t: t} // no responses: any model call fails the test
	r := NewRouter(caller, fakeDetector{lang: "sk"}, nopAuditor{}, testConfig())

	c := r.Route(context.Background(), "Ahoj, ako sa máš?", nil)

	if c.Intent != models.IntentGreeting {
		t.Errorf("intent = %q, want greeting", c.Intent)
	}
	if !c.SkipSearch {
		t.Error("skip_search should be true for greetings")
	}
	if c.Language != "sk" {
		t.Errorf("language = %q, want sk", c.Language)
	}
	if len(caller.calls) != 0 {
		t.Errorf("greeting fast path made %d model calls, want 0", len(caller.calls))
	}
}

func TestRouteWordBoundary(t *testing.T) {
	// "hi" inside "history" or "prohibition" must not trigger the
	// greeting path; these go to the classifier.
	caller := &fakeModelCaller{t: t, responses: []string{
		`{"intent": "question", "complexity": "simple", "needs_eu": true, "needs_sk": false, "rewritten_query": "cartel prohibition history"}`,
	}}
	r := NewRouter(caller, fakeDetector{lang: "en"}, nopAuditor{}, testConfig())

	c := r.Route(context.Background(), "history of prohibition", nil)

	if c.Intent != models.IntentQuestion {
		t.Errorf("intent = %q, want question", c.Intent)
	}
	if c.SkipSearch {
		t.Error("skip_search should be false for questions")
	}
	if len(caller.calls) != 1 {
		t.Errorf("made %d model calls, want 1", len(caller.calls))
	}
}

func TestRouteAccentedGreeting(t *testing.T) {
	caller := &fakeModelCaller{t: t}
	r := NewRouter(caller, fakeDetector{lang: "hu"}, nopAuditor{}, testConfig())

	c := r.Route(context.Background(), "Jó napot kívánok!", nil)
	if c.Intent != models.IntentGreeting {
		t.Errorf("intent = %q, want greeting", c.Intent)
	}
}

func TestRouteLongQueryNotGreeting(t *testing.T) {
	// More than six words: never a greeting even when a pattern appears.
	caller := &fakeModelCaller{t: t, responses: []string{
		`{"intent": "question", "complexity": "complex", "needs_eu": true, "needs_sk": true, "rewritten_query": "q"}`,
	}}
	r := NewRouter(caller, fakeDetector{lang: "en"}, nopAuditor{}, testConfig())

	c := r.Route(context.Background(), "hello I would like to know whether cartels are prohibited", nil)
	if c.Intent != models.IntentQuestion {
		t.Errorf("intent = %q, want question", c.Intent)
	}
	if c.Complexity != models.ComplexityComplex {
		t.Errorf("complexity = %q, want complex", c.Complexity)
	}
}

func TestRouteOfftopicFastPath(t *testing.T) {
	caller := &fakeModelCaller{t: t}
	r := NewRouter(caller, fakeDetector{lang: "sk"}, nopAuditor{}, testConfig())

	c := r.Route(context.Background(), "aké bude počasie zajtra", nil)
	if c.Intent != models.IntentOfftopic {
		t.Errorf("intent = %q, want offtopic", c.Intent)
	}
	if !c.SkipSearch {
		t.Error("skip_search should be true for offtopic")
	}
}

func TestRouteClassifierFallbackDefaults(t *testing.T) {
	// Unparseable model output falls back to broad defaults so the
	// query still gets answered.
	caller := &fakeModelCaller{t: t, responses: []string{"not json at all"}}
	r := NewRouter(caller, fakeDetector{lang: "en"}, nopAuditor{}, testConfig())

	c := r.Route(context.Background(), "does article 101 cover vertical agreements", nil)

	if c.Intent != models.IntentQuestion {
		t.Errorf("intent = %q, want question", c.Intent)
	}
	if !c.NeedsEU || !c.NeedsSK {
		t.Error("fallback should search both jurisdictions")
	}
	if c.RewrittenQuery != "does article 101 cover vertical agreements" {
		t.Errorf("fallback rewritten query = %q, want original", c.RewrittenQuery)
	}
}

func TestRouteModelErrorFallback(t *testing.T) {
	caller := &fakeModelCaller{t: t, failAll: true}
	r := NewRouter(caller, fakeDetector{lang: "en"}, nopAuditor{}, testConfig())

	c := r.Route(context.Background(), "does article 101 cover vertical agreements", nil)
	if c.Intent != models.IntentQuestion || !c.NeedsEU || !c.NeedsSK {
		t.Errorf("model failure should yield broad defaults, got %+v", c)
	}
}
