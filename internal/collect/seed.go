package collect

import "github.com/brandscope/competitor-cli/internal/model"

// mirrorSignalFactor discounts a seeded candidate relative to its source:
// the same brand usually runs matching handles across platforms, but the
// mirror has not been observed directly.
const mirrorSignalFactor = 0.5

// SeedTikTokMirrors proposes TikTok candidates mirroring Instagram handles
// when TikTok yield came up short. Seeds skip handles already collected on
// TikTok and carry mirror-hint evidence at a reduced signal.
func SeedTikTokMirrors(jobID string, instagram, tiktok []model.Candidate) []model.Candidate {
	existing := make(map[string]struct{}, len(tiktok))
	for i := range tiktok {
		existing[tiktok[i].NormalizedHandle] = struct{}{}
	}

	var seeds []model.Candidate
	for i := range instagram {
		src := &instagram[i]
		handle := model.NormalizeHandle(model.SurfaceTikTok, src.NormalizedHandle)
		if handle == "" {
			continue
		}
		if _, ok := existing[handle]; ok {
			continue
		}
		if _, rejected := RejectHandle(model.SurfaceTikTok, handle); rejected {
			continue
		}
		seeds = append(seeds, model.Candidate{
			JobID:            jobID,
			Platform:         model.SurfaceTikTok,
			Handle:           handle,
			NormalizedHandle: handle,
			CanonicalName:    src.CanonicalName,
			Sources:          []string{"mirror_hint"},
			Evidence: []model.Evidence{{
				SourceType:  model.SourceMirrorHint,
				Snippet:     "mirrored from instagram handle " + src.NormalizedHandle,
				SignalScore: src.BaseSignal * mirrorSignalFactor,
			}},
			BaseSignal: src.BaseSignal * mirrorSignalFactor,
		})
	}
	return seeds
}
