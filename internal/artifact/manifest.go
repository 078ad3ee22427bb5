package artifact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	id "callvault/pkg/domain"
	dErrors "callvault/pkg/domain-errors"
	"callvault/pkg/platform/sentinel"
	"callvault/pkg/requestcontext"
)

// evidenceTypes are the artifact types a manifest aggregates. The manifest
// itself is never evidence for another manifest.
var evidenceTypes = []Type{TypeRecording, TypeTranscript, TypeTranslation, TypeScore}

// BuildManifest assembles the evidence bundle for a call from the latest
// version of each evidence type and persists it as a manifest artifact. If a
// manifest already exists for the call the new bundle supersedes it, so the
// previously issued manifest stays verifiable.
func (r *Recorder) BuildManifest(ctx context.Context, callID id.CallID) (*Artifact, error) {
	if callID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "manifest requires a call_id")
	}
	orgID := requestcontext.OrgID(ctx)

	evidence, err := r.gatherEvidence(ctx, orgID, callID)
	if err != nil {
		return nil, err
	}
	if len(evidence) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "no evidence artifacts exist for this call")
	}

	refs := make([]ManifestRef, 0, len(evidence))
	inputs := make([]id.ArtifactID, 0, len(evidence))
	for _, a := range evidence {
		refs = append(refs, ManifestRef{Type: string(a.Type), ID: a.ID.String()})
		inputs = append(inputs, a.ID)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Type != refs[j].Type {
			return refs[i].Type < refs[j].Type
		}
		return refs[i].ID < refs[j].ID
	})

	metadata := ManifestMetadata{
		ManifestID:   id.NewArtifactID().String(),
		Artifacts:    refs,
		ManifestHash: HashManifest(refs),
	}

	existing, err := r.store.LatestByCallAndType(ctx, orgID, callID, TypeManifest)
	switch {
	case err == nil:
		return r.Supersede(ctx, existing.ID, NewVersion{
			Producer: ProducerModel,
			Inputs:   inputs,
			Metadata: metadata,
			Status:   StatusComplete,
		})
	case errors.Is(err, sentinel.ErrNotFound):
		return r.Create(ctx, NewArtifact{
			CallID:   callID,
			Type:     TypeManifest,
			Producer: ProducerModel,
			Inputs:   inputs,
			Metadata: metadata,
			Status:   StatusComplete,
		})
	default:
		return nil, fmt.Errorf("lookup existing manifest: %w", err)
	}
}

// gatherEvidence fetches the latest complete version of each evidence type in
// parallel. Missing types are skipped; a manifest covers whatever evidence
// exists at build time.
func (r *Recorder) gatherEvidence(ctx context.Context, orgID id.OrgID, callID id.CallID) ([]Artifact, error) {
	var (
		mu       sync.Mutex
		gathered []Artifact
	)

	g, gCtx := errgroup.WithContext(ctx)
	for _, evidenceType := range evidenceTypes {
		g.Go(func() error {
			latest, err := r.store.LatestByCallAndType(gCtx, orgID, callID, evidenceType)
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("gather %s evidence: %w", evidenceType, err)
			}
			if latest.Status != StatusComplete {
				return nil
			}
			mu.Lock()
			gathered = append(gathered, *latest)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return gathered, nil
}

// HashManifest computes the integrity hash over a sorted reference list. The
// canonical form is one "type:id" line per reference, so the hash is stable
// across encodings.
func HashManifest(refs []ManifestRef) string {
	lines := make([]string, len(refs))
	for i, ref := range refs {
		lines[i] = ref.Type + ":" + ref.ID
	}
	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}

// VerifyManifest recomputes the hash of a stored manifest and reports whether
// it matches the recorded value.
func VerifyManifest(m ManifestMetadata) bool {
	return HashManifest(m.Artifacts) == m.ManifestHash
}
