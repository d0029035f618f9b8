package report

import (
	"math"

	"github.com/qualitylab/p1203go/internal/log"
)

const defaultDisplaySize = "1920x1080"

// ResolvedIGen is IGen after defaulting, with warnings already logged for
// anything left unset.
func ResolvedIGen(g IGen) IGen {
	if g.DisplaySize == "" {
		log.L().Warn().Msg("no display resolution specified, assuming 1920x1080")
		g.DisplaySize = defaultDisplaySize
	}
	if g.Device == "" {
		log.L().Warn().Msg("device not defined in input report, assuming pc")
		g.Device = "pc"
	}
	return g
}

// CheckSegmentContinuity warns (never fails) when segment i doesn't start
// exactly where segment i-1 ended, within a 0.01s tolerance.
func CheckSegmentContinuity(starts, durations []float64, kind string) {
	for i := 1; i < len(starts); i++ {
		wantStart := round2(starts[i-1] + durations[i-1])
		gotStart := round2(starts[i])
		if math.Abs(wantStart-gotStart) > 0.01 {
			log.L().Warn().
				Str("kind", kind).
				Float64("expected_start", wantStart).
				Float64("actual_start", gotStart).
				Msg("segment is not contiguous with the previous one")
		}
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// ResolveStalling rebases the raw [position, duration] pairs of I23.stalling
// so the first event starts at media position 0, mirroring
// calculate_integration's handling of I23 before Pq ever sees it: the shift
// is taken from the first event's raw position with no filtering applied
// here. A caller that wants to avoid the shift documents the standard
// idiom of adding a [0, 0] sentinel event; since that event's position is
// already 0 it produces a zero shift, and the sentinel itself is later
// dropped by Pq's own l==0 filter. Range and duration filtering happens in
// integration.New, not here.
func ResolveStalling(events [][2]float64, maxDuration float64) (pBuff, lBuff []float64) {
	if len(events) == 0 {
		return nil, nil
	}

	shift := events[0][0]
	if shift != 0 {
		log.L().Warn().
			Float64("shift", shift).
			Msg("first stalling event does not start at 0, rebasing stalling positions")
	}

	for _, e := range events {
		pBuff = append(pBuff, e[0]-shift)
		lBuff = append(lBuff, e[1])
	}

	return pBuff, lBuff
}
