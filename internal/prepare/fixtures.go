package prepare

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Ocean50ul/home-server/internal/media/ffmpeg"
)

// Fixture layout under [library].fixtures_dir:
//
//	files/flac_valid_metadata.flac         tagged sine tone
//	files/mp3_valid_metadata.mp3           tagged sine tone
//	files/wav_valid_metadata.wav           tagged sine tone
//	files/mp3_no_metadata.mp3              sine tone without tags
//	files/mp3_corrupted.mp3                garbage bytes, not a real mp3
//	files/no_permission.flac               mode 0o000
//	dirs/inaccessible_dir                  mode 0o000
//	dirs/accessible_dir/inaccessible_dir   mode 0o000
//
// The stripped entries exercise the scanner's soft error paths.

const (
	fixtureStateName = "fixtures_state.json"

	fixtureToneFrequency = 880
	fixtureToneDuration  = 5
)

// FixtureState records what fixture generation created so cleanup can
// restore stripped permissions before deleting the tree.
type FixtureState struct {
	Root          string   `json:"root"`
	AudioFiles    []string `json:"audio_files"`
	StrippedFiles []string `json:"stripped_files"`
	StrippedDirs  []string `json:"stripped_dirs"`
}

type audioFixture struct {
	name     string
	metadata map[string]string
}

func audioFixtures() []audioFixture {
	return []audioFixture{
		{
			name: "flac_valid_metadata.flac",
			metadata: map[string]string{
				"title":   "FLAC test title",
				"artist":  "FLAC test artist",
				"album":   "FLAC test album",
				"genre":   "FLAC test genre",
				"date":    "2023",
				"track":   "1/1",
				"comment": "FLAC test comment",
			},
		},
		{
			name: "mp3_valid_metadata.mp3",
			metadata: map[string]string{
				"title":   "MP3 test title",
				"artist":  "MP3 test artist",
				"album":   "MP3 test album",
				"genre":   "MP3 test genre",
				"date":    "2023",
				"track":   "1",
				"comment": "MP3 test comment",
			},
		},
		{
			name: "wav_valid_metadata.wav",
			metadata: map[string]string{
				"title":   "WAV test title",
				"artist":  "WAV test artist",
				"album":   "WAV test album",
				"genre":   "WAV test genre",
				"date":    "2023",
				"track":   "1",
				"comment": "WAV test comment",
			},
		},
		{name: "mp3_no_metadata.mp3"},
	}
}

// corruptedFrame returns bytes that no probe recognizes as an mpeg frame.
func corruptedFrame() []byte {
	return append([]byte{0xde, 0xad, 0xbe, 0xef}, []byte("not an mpeg frame")...)
}

// ensureFixtures regenerates the fixture tree unless the state file is
// already in place. The state file stands in for the whole set: the
// stripped entries cannot be statted through without restoring their
// permissions first.
func (s *Service) ensureFixtures(ctx context.Context) (StepResult, error) {
	root := strings.TrimSpace(s.cfg.Library.FixturesDir)
	if root == "" {
		return StepResult{}, errors.New("fixtures directory not configured")
	}
	statePath := filepath.Join(root, fixtureStateName)
	if _, err := os.Stat(statePath); err == nil {
		return StepResult{Name: StepFixtures, Skipped: true, Detail: "state file present at " + statePath}, nil
	}

	state, err := s.GenerateFixtures(ctx)
	if err != nil {
		return StepResult{}, err
	}
	total := len(state.AudioFiles) + len(state.StrippedFiles) + len(state.StrippedDirs)
	return StepResult{Name: StepFixtures, Detail: fmt.Sprintf("created %d fixtures under %s", total, root)}, nil
}

// GenerateFixtures builds the full fixture tree and writes the state file.
func (s *Service) GenerateFixtures(ctx context.Context) (*FixtureState, error) {
	root := strings.TrimSpace(s.cfg.Library.FixturesDir)
	if root == "" {
		return nil, errors.New("fixtures directory not configured")
	}
	filesDir := filepath.Join(root, "files")
	if err := os.MkdirAll(filesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create fixture files directory: %w", err)
	}

	state := &FixtureState{Root: root}

	synth := s.synthesizer()
	for _, fixture := range audioFixtures() {
		outputPath := filepath.Join(filesDir, fixture.name)
		spec := ffmpeg.ToneSpec{
			Frequency:  fixtureToneFrequency,
			Duration:   fixtureToneDuration,
			Metadata:   fixture.metadata,
			OutputPath: outputPath,
		}
		if err := synth.Synthesize(ctx, spec); err != nil {
			return nil, fmt.Errorf("synthesize %s: %w", fixture.name, err)
		}
		state.AudioFiles = append(state.AudioFiles, outputPath)
	}

	corrupted := filepath.Join(filesDir, "mp3_corrupted.mp3")
	if err := os.WriteFile(corrupted, corruptedFrame(), 0o644); err != nil {
		return nil, fmt.Errorf("write corrupted fixture: %w", err)
	}
	state.AudioFiles = append(state.AudioFiles, corrupted)

	locked := filepath.Join(filesDir, "no_permission.flac")
	// A previous run may have left the file unwritable.
	_ = os.Chmod(locked, 0o644)
	if err := os.WriteFile(locked, []byte("test"), 0o644); err != nil {
		return nil, fmt.Errorf("write stripped fixture: %w", err)
	}
	if err := os.Chmod(locked, 0o000); err != nil {
		return nil, fmt.Errorf("strip fixture file permissions: %w", err)
	}
	state.StrippedFiles = append(state.StrippedFiles, locked)

	for _, dir := range []string{
		filepath.Join(root, "dirs", "inaccessible_dir"),
		filepath.Join(root, "dirs", "accessible_dir", "inaccessible_dir"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create fixture directory %q: %w", dir, err)
		}
		if err := os.Chmod(dir, 0o000); err != nil {
			return nil, fmt.Errorf("strip fixture directory permissions: %w", err)
		}
		state.StrippedDirs = append(state.StrippedDirs, dir)
	}

	if err := writeFixtureState(state); err != nil {
		return nil, err
	}
	s.logger.Info("generated fixtures",
		"root", root,
		"audio_files", len(state.AudioFiles),
		"stripped", len(state.StrippedFiles)+len(state.StrippedDirs))
	return state, nil
}

// CleanupFixtures restores stripped permissions and removes the fixture
// tree. Directories are restored shallowest first so nested stripped
// paths become reachable, then files.
func (s *Service) CleanupFixtures() error {
	root := strings.TrimSpace(s.cfg.Library.FixturesDir)
	if root == "" {
		return errors.New("fixtures directory not configured")
	}
	data, err := os.ReadFile(filepath.Join(root, fixtureStateName))
	if err != nil {
		return fmt.Errorf("read fixture state: %w", err)
	}
	var state FixtureState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("decode fixture state: %w", err)
	}
	if strings.TrimSpace(state.Root) == "" {
		return errors.New("fixture state has no root")
	}

	dirs := append([]string(nil), state.StrippedDirs...)
	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(filepath.Separator)) < strings.Count(dirs[j], string(filepath.Separator))
	})
	for _, dir := range dirs {
		if err := os.Chmod(dir, 0o755); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("restore directory permissions failed", "path", dir, "error", err)
		}
	}
	for _, file := range state.StrippedFiles {
		if err := os.Chmod(file, 0o644); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("restore file permissions failed", "path", file, "error", err)
		}
	}

	if err := os.RemoveAll(state.Root); err != nil {
		return fmt.Errorf("remove fixture tree: %w", err)
	}
	s.logger.Info("removed fixtures", "root", state.Root)
	return nil
}

func writeFixtureState(state *FixtureState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode fixture state: %w", err)
	}
	if err := os.WriteFile(filepath.Join(state.Root, fixtureStateName), data, 0o644); err != nil {
		return fmt.Errorf("write fixture state: %w", err)
	}
	return nil
}
