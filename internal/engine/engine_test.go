package engine_test

import (
	"bytes"
	"context"
	"errors"
	"log"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/funvibe/pyretscan/internal/checkpoint"
	"github.com/funvibe/pyretscan/internal/engine"
	"github.com/funvibe/pyretscan/internal/pipeline"
	"github.com/funvibe/pyretscan/internal/scanner"
	"github.com/funvibe/pyretscan/internal/token"
)

var everything = scanner.NewCandidateSet(
	scanner.ParenNoSpace, scanner.ParenAfterSpace, scanner.ParenAfterBrace,
	scanner.OpenAngle, scanner.CloseAngle, scanner.LessThan, scanner.GreaterThan,
)

func newEngine(set scanner.CandidateSet, opts ...engine.Option) *engine.Engine {
	opts = append([]engine.Option{engine.WithScannerLogger(nil)}, opts...)
	return engine.New(engine.StaticPolicy{Set: set}, opts...)
}

func run(t *testing.T, e *engine.Engine, src string) *engine.Result {
	t.Helper()
	res, err := e.NewSession().Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run(%q): %v", src, err)
	}
	return res
}

func types(toks []token.Token) []token.TokenType {
	out := make([]token.TokenType, len(toks))
	for i, tok := range toks {
		out[i] = tok.Type
	}
	return out
}

func expectTypes(t *testing.T, res *engine.Result, want ...token.TokenType) {
	t.Helper()
	if got := types(res.Tokens); !reflect.DeepEqual(got, want) {
		t.Errorf("types = %v\nwant    %v", got, want)
	}
}

func TestRun_ApplicationAndGrouping(t *testing.T) {
	e := newEngine(scanner.NewCandidateSet(scanner.ParenNoSpace, scanner.ParenAfterSpace))
	res := run(t, e, "f(x) + g (y)")
	expectTypes(t, res,
		token.NAME, token.PAREN_NO_SPACE, token.NAME, token.RPAREN, token.PLUS,
		token.NAME, token.PAREN_SPACE, token.NAME, token.RPAREN)

	paren := res.Tokens[6]
	if paren.Lexeme != "(" || paren.Start != 9 || paren.Column != 10 {
		t.Errorf("paren token = %+v", paren)
	}
}

func TestRun_BraceThenParen(t *testing.T) {
	e := newEngine(scanner.NewCandidateSet(scanner.ParenAfterBrace, scanner.ParenNoSpace))
	res := run(t, e, "{(x)}")
	expectTypes(t, res,
		token.LBRACE, token.PAREN_AFTER_BRACE, token.NAME, token.RPAREN, token.RBRACE)

	first := res.Decisions[0]
	if first.Produced || first.After.Prev != scanner.PrecededByOpenBrace {
		t.Errorf("first decision = %s", first)
	}
}

func TestRun_GenericsAndComparisons(t *testing.T) {
	e := newEngine(everything)

	expectTypes(t, run(t, e, "List<Number>"),
		token.NAME, token.LANGLE, token.NAME, token.RANGLE)
	expectTypes(t, run(t, e, "x < y"),
		token.NAME, token.LT, token.NAME)
	expectTypes(t, run(t, e, "x > y"),
		token.NAME, token.GT, token.NAME)
	expectTypes(t, run(t, e, "x<=y"),
		token.NAME, token.LEQ, token.NAME)
	expectTypes(t, run(t, e, "a <> b >= c <- d"),
		token.NAME, token.NEQ, token.NAME, token.GEQ, token.NAME, token.LARROW, token.NAME)
}

func TestRun_CommentIsADecisionPoint(t *testing.T) {
	e := newEngine(scanner.NewCandidateSet(scanner.ParenNoSpace, scanner.ParenAfterSpace))

	for _, src := range []string{"f # c\n(x)", "f #| c |# (x)"} {
		res := run(t, e, src)
		expectTypes(t, res, token.NAME, token.PAREN_SPACE, token.NAME, token.RPAREN)
		if paren := res.Tokens[1]; src[paren.Start:paren.End] != "(" {
			t.Errorf("%q: paren span [%d,%d)", src, paren.Start, paren.End)
		}
	}
	// Nothing between the comment and the paren.
	expectTypes(t, run(t, e, "f #| c |#(x)"),
		token.NAME, token.PAREN_NO_SPACE, token.NAME, token.RPAREN)
}

func TestRun_UnterminatedBlockComment(t *testing.T) {
	expectTypes(t, run(t, newEngine(everything), "f #| open"),
		token.NAME, token.ILLEGAL)
}

func TestRun_ErrorSentinelFallsBackToLexer(t *testing.T) {
	e := newEngine(everything.With(scanner.ErrorSentinel))
	expectTypes(t, run(t, e, "f(x) < g"),
		token.NAME, token.LPAREN, token.NAME, token.RPAREN, token.LANGLE_RAW, token.NAME)
}

func TestRun_EmptyPolicySkipsScanner(t *testing.T) {
	e := newEngine(scanner.CandidateSet{})
	res := run(t, e, "f(x)")
	if len(res.Decisions) != 0 {
		t.Errorf("decisions = %v, want none", res.Decisions)
	}
	expectTypes(t, res, token.NAME, token.LPAREN, token.NAME, token.RPAREN)
}

func TestRun_PolicyFuncSeesPreviousToken(t *testing.T) {
	var seen []token.TokenType
	policy := engine.PolicyFunc(func(offset int, prev token.Token) scanner.CandidateSet {
		seen = append(seen, prev.Type)
		if prev.Type == token.NAME {
			return scanner.NewCandidateSet(scanner.ParenNoSpace)
		}
		return scanner.CandidateSet{}
	})
	e := engine.New(policy, engine.WithScannerLogger(nil))
	res, err := e.NewSession().Run(context.Background(), "f(g)")
	if err != nil {
		t.Fatal(err)
	}
	expectTypes(t, res, token.NAME, token.PAREN_NO_SPACE, token.NAME, token.RPAREN)
	if seen[0] != "" {
		t.Errorf("first prev = %q, want empty", seen[0])
	}
}

func TestRun_AdvisoryGoesToScannerLogger(t *testing.T) {
	var buf bytes.Buffer
	e := engine.New(engine.StaticPolicy{Set: scanner.NewCandidateSet(scanner.ParenAfterSpace)},
		engine.WithScannerLogger(log.New(&buf, "", 0)))
	res := run(t, e, "f(x)")
	expectTypes(t, res, token.NAME, token.LPAREN, token.NAME, token.RPAREN)
	if strings.Count(buf.String(), "invalid ( encountered") != 1 {
		t.Errorf("advisories = %q", buf.String())
	}
}

func TestRun_CheckpointsMatchDecisions(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	e := newEngine(everything, engine.WithStore(store))
	sess := e.NewSession()
	res, err := sess.Run(context.Background(), "{(a)} f (b) x < y")
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range res.Decisions {
		cp, ok, err := store.Nearest(context.Background(), sess.ID.String(), d.Offset)
		if err != nil || !ok || cp.Offset != d.Offset {
			t.Fatalf("no checkpoint at %d: %+v %v %v", d.Offset, cp, ok, err)
		}
		if got := scanner.Deserialize(cp.State); got != d.Before {
			t.Errorf("checkpoint @%d = %s, decision saw %s", d.Offset, got.Prev, d.Before.Prev)
		}
	}
	if err := sess.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if store.Len(sess.ID.String()) != 0 {
		t.Error("Close left checkpoints behind")
	}
}

func TestRelex_MatchesFreshRun(t *testing.T) {
	before := "fun f(a, b):\n  g (a) < h(b)\nend\nx :: List<Number> = {(1)}\n"
	edits := []struct {
		name string
		src  string
		at   int
	}{
		{"append", before + "y > z\n", len(before)},
		{"tail change", strings.Replace(before, "{(1)}", "{ (1)}", 1), strings.Index(before, "{(1)}") + 1},
		{"middle", strings.Replace(before, "h(b)", "h (b)", 1), strings.Index(before, "h(b)") + 1},
		{"start", "q" + before, 0},
	}
	for _, edit := range edits {
		t.Run(edit.name, func(t *testing.T) {
			e := newEngine(everything)
			sess := e.NewSession()
			ctx := context.Background()
			if _, err := sess.Run(ctx, before); err != nil {
				t.Fatal(err)
			}
			got, err := sess.Relex(ctx, edit.src, edit.at)
			if err != nil {
				t.Fatal(err)
			}
			want := run(t, newEngine(everything), edit.src)
			if !reflect.DeepEqual(got.Tokens, want.Tokens) {
				t.Errorf("relex tokens differ\n got %v\nwant %v", got.Tokens, want.Tokens)
			}
			if !reflect.DeepEqual(got.Decisions, want.Decisions) {
				t.Errorf("relex decisions differ\n got %v\nwant %v", got.Decisions, want.Decisions)
			}
		})
	}
}

func TestRelex_ResumesFromCheckpoint(t *testing.T) {
	var logs bytes.Buffer
	e := newEngine(everything, engine.WithLogger(log.New(&logs, "", 0)))
	sess := e.NewSession()
	ctx := context.Background()
	src := "a(b) c (d) e < f List<T> g(h)"
	if _, err := sess.Run(ctx, src); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.Relex(ctx, src+" i", len(src)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(logs.String(), "relex from") || strings.Contains(logs.String(), "relex from 0 ") {
		t.Errorf("expected a resume past the start, logs = %q", logs.String())
	}
}

func TestRelex_WithoutRunLexesEverything(t *testing.T) {
	e := newEngine(everything)
	res, err := e.NewSession().Relex(context.Background(), "f(x)", 3)
	if err != nil {
		t.Fatal(err)
	}
	expectTypes(t, res, token.NAME, token.PAREN_NO_SPACE, token.NAME, token.RPAREN)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newEngine(everything).NewSession().Run(ctx, "f(x)")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// attachAndRelex runs src in one engine, then reopens the session from
// store in a second engine and relexes an append.
func attachAndRelex(t *testing.T, store checkpoint.Store) {
	t.Helper()
	ctx := context.Background()
	src := "a(b) c (d) e < f List<T> {(g)} # note\nh(i)"
	edited := src + " j (k)"

	first := newEngine(everything, engine.WithStore(store)).NewSession()
	if _, err := first.Run(ctx, src); err != nil {
		t.Fatal(err)
	}

	var logs bytes.Buffer
	other := newEngine(everything, engine.WithStore(store), engine.WithLogger(log.New(&logs, "", 0))).Attach(first.ID)
	got, err := other.Relex(ctx, edited, len(src))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(logs.String(), "relex from") || strings.Contains(logs.String(), "relex from 0 ") {
		t.Errorf("expected a resume past the start, logs = %q", logs.String())
	}

	want := run(t, newEngine(everything), edited)
	if !reflect.DeepEqual(got.Tokens, want.Tokens) {
		t.Errorf("tokens differ\n got %v\nwant %v", got.Tokens, want.Tokens)
	}
	if !reflect.DeepEqual(got.Decisions, want.Decisions) {
		t.Errorf("decisions differ\n got %v\nwant %v", got.Decisions, want.Decisions)
	}
}

func TestAttach_ResumesFromMemoryStore(t *testing.T) {
	attachAndRelex(t, checkpoint.NewMemoryStore())
}

func TestAttach_ResumesFromSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cp.db")
	store, err := checkpoint.OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	attachAndRelex(t, store)
}

func TestAttach_ReopenedDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cp.db")
	src := "f (x) < y g(z) h (w)"

	store, err := checkpoint.OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	sess := newEngine(everything, engine.WithStore(store)).NewSession()
	if _, err := sess.Run(ctx, src); err != nil {
		t.Fatal(err)
	}
	store.Close()

	reopened, err := checkpoint.OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	res, err := newEngine(everything, engine.WithStore(reopened)).Attach(sess.ID).Relex(ctx, src+" z", len(src))
	if err != nil {
		t.Fatal(err)
	}
	expectTypes(t, res,
		token.NAME, token.PAREN_SPACE, token.NAME, token.RPAREN, token.LT, token.NAME,
		token.NAME, token.PAREN_NO_SPACE, token.NAME, token.RPAREN,
		token.NAME, token.PAREN_SPACE, token.NAME, token.RPAREN, token.NAME)
	if res.Tokens[0].Lexeme != "f" || res.Tokens[4].Column != 7 {
		t.Errorf("replayed tokens = %v", res.Tokens[:5])
	}
}

// saveFailingStore accepts nothing.
type saveFailingStore struct {
	*checkpoint.MemoryStore
}

func (saveFailingStore) Save(context.Context, string, checkpoint.Checkpoint) error {
	return errors.New("read-only")
}

func TestScanProcessor_ScanFailureHalts(t *testing.T) {
	e := newEngine(everything, engine.WithStore(saveFailingStore{checkpoint.NewMemoryStore()}))
	reported := false
	report := pipeline.ProcessorFunc(func(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
		reported = true
		return ctx
	})

	ctx := pipeline.NewContext(context.Background(), "test.arr", "f(x)")
	ctx = pipeline.New(&engine.ScanProcessor{Engine: e}, report).Run(ctx)

	if reported {
		t.Error("report stage ran after a failed scan")
	}
	if len(ctx.Errors) != 1 || ctx.Errors[0].Code != "S000" || !ctx.Errors[0].Fatal {
		t.Fatalf("errors = %v", ctx.Errors)
	}
	if !strings.Contains(ctx.Errors[0].Message, "read-only") {
		t.Errorf("message = %q", ctx.Errors[0].Message)
	}
}

func TestScanProcessor(t *testing.T) {
	e := newEngine(everything)
	ctx := pipeline.NewContext(context.Background(), "test.arr", "f(x) $ g")
	ctx = pipeline.New(&engine.ScanProcessor{Engine: e}).Run(ctx)

	if ctx.SessionID == "" {
		t.Error("session id not set")
	}
	if len(ctx.Tokens) != 6 {
		t.Errorf("tokens = %v", ctx.Tokens)
	}
	if len(ctx.Errors) != 1 || ctx.Errors[0].Code != "L001" {
		t.Fatalf("errors = %v", ctx.Errors)
	}
	if msg := ctx.Errors[0].Error(); !strings.HasPrefix(msg, "test.arr:1:6:") {
		t.Errorf("error = %q", msg)
	}
}
