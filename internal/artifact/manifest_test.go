package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "callvault/pkg/domain"
	dErrors "callvault/pkg/domain-errors"
)

func TestHashManifest_Deterministic(t *testing.T) {
	refs := []ManifestRef{
		{Type: "recording", ID: "a"},
		{Type: "transcript", ID: "b"},
	}

	first := HashManifest(refs)
	second := HashManifest(refs)
	assert.Equal(t, first, second)
	assert.Len(t, first, 64, "sha256 hex digest")

	reordered := []ManifestRef{refs[1], refs[0]}
	assert.NotEqual(t, first, HashManifest(reordered),
		"the hash covers the canonical order, so callers must sort before hashing")
}

func TestVerifyManifest(t *testing.T) {
	refs := []ManifestRef{{Type: "recording", ID: "a"}}
	m := ManifestMetadata{ManifestID: "m1", Artifacts: refs, ManifestHash: HashManifest(refs)}
	assert.True(t, VerifyManifest(m))

	m.Artifacts = append(m.Artifacts, ManifestRef{Type: "transcript", ID: "b"})
	assert.False(t, VerifyManifest(m), "tampering with the reference list must break verification")
}

func TestBuildManifest_AggregatesCompleteEvidence(t *testing.T) {
	f := newFixture()
	ctx := f.systemCtx()
	callID := id.NewCallID()

	recording, err := f.recorder.Create(ctx, NewArtifact{
		CallID:   callID,
		Type:     TypeRecording,
		Producer: ProducerModel,
		Metadata: RecordingMetadata{RecordingSID: "RE1", DurationSeconds: 30},
	})
	require.NoError(t, err)
	transcript := f.createTranscript(t, callID)

	// Queued evidence is not part of the bundle.
	_, err = f.recorder.Create(ctx, NewArtifact{
		CallID:   callID,
		Type:     TypeTranslation,
		Producer: ProducerModel,
		Status:   StatusQueued,
	})
	require.NoError(t, err)

	manifest, err := f.recorder.BuildManifest(ctx, callID)
	require.NoError(t, err)

	assert.Equal(t, TypeManifest, manifest.Type)
	assert.Equal(t, 1, manifest.Version)
	assert.ElementsMatch(t, []id.ArtifactID{recording.ID, transcript.ID}, manifest.Inputs)

	metadata, ok := manifest.Metadata.(ManifestMetadata)
	require.True(t, ok)
	require.Len(t, metadata.Artifacts, 2)
	assert.Equal(t, "recording", metadata.Artifacts[0].Type, "references are sorted by type then id")
	assert.Equal(t, "transcript", metadata.Artifacts[1].Type)
	assert.True(t, VerifyManifest(metadata))
}

func TestBuildManifest_UsesLatestVersionPerType(t *testing.T) {
	f := newFixture()
	ctx := f.systemCtx()
	callID := id.NewCallID()

	transcript := f.createTranscript(t, callID)
	corrected, err := f.recorder.Supersede(ctx, transcript.ID, NewVersion{
		Producer: ProducerHuman,
		Metadata: TranscriptMetadata{Language: "en", Text: "hello, world"},
	})
	require.NoError(t, err)

	manifest, err := f.recorder.BuildManifest(ctx, callID)
	require.NoError(t, err)

	metadata := manifest.Metadata.(ManifestMetadata)
	require.Len(t, metadata.Artifacts, 1)
	assert.Equal(t, corrected.ID.String(), metadata.Artifacts[0].ID)
}

func TestBuildManifest_SupersedesExistingManifest(t *testing.T) {
	f := newFixture()
	ctx := f.systemCtx()
	callID := id.NewCallID()

	f.createTranscript(t, callID)
	first, err := f.recorder.BuildManifest(ctx, callID)
	require.NoError(t, err)

	_, err = f.recorder.Create(ctx, NewArtifact{
		CallID:   callID,
		Type:     TypeRecording,
		Producer: ProducerModel,
		Metadata: RecordingMetadata{RecordingSID: "RE1"},
	})
	require.NoError(t, err)

	second, err := f.recorder.BuildManifest(ctx, callID)
	require.NoError(t, err)

	assert.Equal(t, first.Version+1, second.Version)
	require.NotNil(t, second.ParentID)
	assert.Equal(t, first.ID, *second.ParentID)

	// The previously issued manifest stays readable and verifiable.
	original, err := f.recorder.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, VerifyManifest(original.Metadata.(ManifestMetadata)))
	assert.NotEqual(t,
		original.Metadata.(ManifestMetadata).ManifestHash,
		second.Metadata.(ManifestMetadata).ManifestHash,
		"new evidence changes the bundle hash")
}

func TestBuildManifest_NoEvidence(t *testing.T) {
	f := newFixture()

	_, err := f.recorder.BuildManifest(f.systemCtx(), id.NewCallID())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestMetadataRoundTrip_ManifestKind(t *testing.T) {
	refs := []ManifestRef{{Type: "recording", ID: "a"}}
	original := ManifestMetadata{ManifestID: "m1", Artifacts: refs, ManifestHash: HashManifest(refs)}

	raw, err := EncodeMetadata(original)
	require.NoError(t, err)

	decoded, err := DecodeMetadata(raw)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestEncodeMetadata_RejectsInvalid(t *testing.T) {
	_, err := EncodeMetadata(ManifestMetadata{ManifestID: "m1"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
