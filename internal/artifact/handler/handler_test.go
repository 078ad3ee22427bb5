package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callvault/internal/artifact"
	"callvault/internal/audit"
	"callvault/internal/platform/metrics"
	id "callvault/pkg/domain"
	dErrors "callvault/pkg/domain-errors"
	"callvault/pkg/requestcontext"
	"callvault/pkg/testutil"
)

var testMetrics = metrics.New()

type fixture struct {
	recorder *artifact.Recorder
	router   chi.Router
	orgID    id.OrgID
	userID   id.UserID
	asHuman  bool
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	f := &fixture{
		recorder: artifact.NewRecorder(artifact.NewMemoryStore(), audit.NewLedger(audit.NewMemoryStore()), testMetrics, logger),
		orgID:    id.NewOrgID(),
		userID:   id.NewUserID(),
		asHuman:  true,
	}

	f.router = chi.NewRouter()
	f.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithOrgID(r.Context(), f.orgID)
			if f.asHuman {
				ctx = requestcontext.WithUserID(ctx, f.userID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	New(f.recorder, logger).Register(f.router)
	return f
}

func (f *fixture) createTranscript(t *testing.T) *artifact.Artifact {
	t.Helper()
	ctx := testutil.AuthedContext(f.orgID, f.userID)
	created, err := f.recorder.Create(ctx, artifact.NewArtifact{
		CallID:   id.NewCallID(),
		Type:     artifact.TypeTranscript,
		Producer: artifact.ProducerModel,
		Metadata: artifact.TranscriptMetadata{Language: "en", Text: "hello"},
	})
	require.NoError(t, err)
	return created
}

// artifactView mirrors ArtifactResponse with raw metadata so test assertions
// can unmarshal the payload without knowing the variant up front.
type artifactView struct {
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Producer        string          `json:"producer"`
	IsAuthoritative bool            `json:"is_authoritative"`
	Version         int             `json:"version"`
	ParentID        *string         `json:"parent_id"`
	Metadata        json.RawMessage `json:"metadata"`
}

func TestHandleGet(t *testing.T) {
	f := newFixture(t)
	created := f.createTranscript(t)

	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/artifacts/"+created.ID.String()))

	testutil.AssertStatusOK(t, rr)
	resp := testutil.UnmarshalResponse[artifactView](t, rr)
	assert.Equal(t, created.ID.String(), resp.ID)
	assert.Equal(t, "transcript", resp.Type)
	assert.Equal(t, 1, resp.Version)
	assert.False(t, resp.IsAuthoritative)
	assert.JSONEq(t, `{"language":"en","text":"hello"}`, string(resp.Metadata))
}

func TestHandleGet_InvalidID(t *testing.T) {
	f := newFixture(t)

	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/artifacts/not-a-uuid"))

	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
}

func TestHandleGet_Unknown(t *testing.T) {
	f := newFixture(t)

	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/artifacts/"+id.NewArtifactID().String()))

	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, string(dErrors.CodeNotFound))
}

func TestHandleLineage(t *testing.T) {
	f := newFixture(t)
	created := f.createTranscript(t)

	ctx := testutil.AuthedContext(f.orgID, f.userID)
	child, err := f.recorder.Supersede(ctx, created.ID, artifact.NewVersion{
		Producer: artifact.ProducerHuman,
		Metadata: artifact.TranscriptMetadata{Language: "en", Text: "hello, corrected"},
	})
	require.NoError(t, err)

	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/artifacts/"+child.ID.String()+"/lineage"))

	testutil.AssertStatusOK(t, rr)
	var body struct {
		Lineage []artifactView `json:"lineage"`
	}
	require.NoError(t, json.Unmarshal(testutil.ReadBody(t, rr), &body))
	require.Len(t, body.Lineage, 2)
	assert.Equal(t, 1, body.Lineage[0].Version)
	assert.Equal(t, 2, body.Lineage[1].Version)
	require.NotNil(t, body.Lineage[1].ParentID)
	assert.Equal(t, created.ID.String(), *body.Lineage[1].ParentID)
}

func TestHandlePromote(t *testing.T) {
	f := newFixture(t)
	created := f.createTranscript(t)

	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodPost, "/artifacts/"+created.ID.String()+"/promote"))

	testutil.AssertStatus(t, rr, http.StatusCreated)
	resp := testutil.UnmarshalResponse[artifactView](t, rr)
	assert.True(t, resp.IsAuthoritative)
	assert.Equal(t, 2, resp.Version)
	assert.Equal(t, "human", resp.Producer)
}

func TestHandlePromote_RequiresHuman(t *testing.T) {
	f := newFixture(t)
	created := f.createTranscript(t)
	f.asHuman = false

	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodPost, "/artifacts/"+created.ID.String()+"/promote"))

	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, string(dErrors.CodeForbidden))
}
