// Package integration implements Pq, the integration module that combines
// the per-second audio (O21) and video (O22) MOS tracks with stalling
// events into the session-level scores O23, O34, O35 and the final
// audiovisual MOS O46 (spec.md §4.5).
package integration

import (
	"math"

	"github.com/qualitylab/p1203go/internal/log"
	"github.com/qualitylab/p1203go/internal/numeric"
	"github.com/qualitylab/p1203go/internal/perror"
	"github.com/qualitylab/p1203go/internal/rf"
)

// Coeffs holds every tunable constant Pq uses; callers can override
// individual values via Model.Coeffs without reimplementing the model.
type Coeffs struct {
	CRef7, CRef8                 float64
	AV1, AV2, AV3, AV4           float64
	Amendment1AThreshold         float64
	T1, T2, T3, T4, T5           float64
	C1, C2, C23                  float64
	S1, S2, S3                   float64
	Amendment1A1, Amendment1A2   float64
	Comp1, Comp2, Comp3, Comp4   float64
	F1, F2                       float64
}

// DefaultCoeffs returns the coefficients tabulated in ITU-T P.1203.3.
func DefaultCoeffs() Coeffs {
	return Coeffs{
		CRef7: 0.48412879, CRef8: 10,
		AV1: -0.00069084, AV2: 0.15374283, AV3: 0.97153861, AV4: 0.02461776,
		Amendment1AThreshold: 2.0,
		T1:                   0.00666620027943848,
		T2:                   0.0000404018840273729,
		T3:                   0.156497800436237,
		T4:                   0.143179744942738,
		T5:                   0.0238641564518876,
		C1:                   1.87403625, C2: 7.85416481, C23: 0.01853820,
		S1: 9.35158684, S2: 0.91890815, S3: 11.0567558,
		Amendment1A1: -0.066667, Amendment1A2: 2.0,
		Comp1: 0.67756080, Comp2: -8.05533303, Comp3: 0.17332553, Comp4: -0.01035647,
		F1: 0.02833052, F2: 0.98117059,
	}
}

// Amendments toggles the optional clauses of ITU-T P.1203 Amendment 1.
type Amendments struct {
	Audiovisual bool // Clause 8.2 fix
	Stalling    bool // Clause 8.4 fix
	App2        bool // Appendix 2 simplified model, for P.1204.3 compatibility
}

// Model runs Pq over one session's audio/video MOS tracks and stalling
// buffers.
type Model struct {
	O21, O22   []float64
	PBuff      []float64 // stalling event positions, media time seconds
	LBuff      []float64 // stalling event durations, seconds
	Device     string
	Coeffs     Coeffs
	Amendments Amendments
	Ensemble   *rf.Ensemble

	hasAudio, hasVideo bool
}

// Result is Pq's session-level output.
type Result struct {
	O23 float64
	O34 []float64
	O35 float64
	O46 float64
}

// New builds a Model, applying the same stalling-event filtering and
// audio/video presence detection the reference model performs in its
// constructor. pBuff/lBuff are the events as rebased by
// report.ResolveStalling, which does not filter them; New drops, with a
// warning, every event past the session duration (the shorter of the
// O21/O22 lengths) and every zero-length event.
func New(o21, o22 []float64, pBuff, lBuff []float64, device string) *Model {
	m := &Model{
		O21:        o21,
		O22:        o22,
		Device:     device,
		Coeffs:     DefaultCoeffs(),
		hasAudio:   len(o21) > 0,
		hasVideo:   len(o22) > 0,
	}

	maxDur := len(o22)
	if m.hasAudio {
		maxDur = min(len(o21), len(o22))
	}
	for i, p := range pBuff {
		l := lBuff[i]
		if p > float64(maxDur) {
			log.L().Warn().Float64("position", p).Int("max_duration", maxDur).Msg("dropping stalling event past the end of the session")
			continue
		}
		if l == 0 {
			log.L().Warn().Float64("position", p).Msg("dropping stalling event with zero duration")
			continue
		}
		m.PBuff = append(m.PBuff, p)
		m.LBuff = append(m.LBuff, l)
	}

	return m
}

func (m *Model) calcStallingFeatures(duration int) (totalStallLen float64, numStalls int, avgStallInterval float64) {
	for i, p := range m.PBuff {
		l := m.LBuff[i]
		totalStallLen += l * numeric.Exponential(1, m.Coeffs.CRef7, 0, m.Coeffs.CRef8, float64(duration)-p)
	}
	numStalls = len(m.LBuff)
	if numStalls > 1 {
		var sum float64
		for i := 1; i < len(m.PBuff); i++ {
			sum += m.PBuff[i] - m.PBuff[i-1]
		}
		avgStallInterval = sum / float64(len(m.LBuff)-1)
	}
	return totalStallLen, numStalls, avgStallInterval
}

func (m *Model) calcStallingImpact(numStalls int, totalStallLen float64, duration int, avgStallInterval float64) float64 {
	d := float64(duration)
	return math.Exp(-float64(numStalls)/m.Coeffs.S1) *
		math.Exp(-totalStallLen/d/m.Coeffs.S2) *
		math.Exp(-avgStallInterval/d/m.Coeffs.S3)
}

func (m *Model) calcVideoQualityChangeRate(duration int) float64 {
	var rate float64
	for i := 1; i < duration; i++ {
		diff := m.O22[i] - m.O22[i-1]
		if diff > 0.2 || diff < -0.2 {
			rate++
		}
	}
	return rate / float64(duration)
}

func (m *Model) calc034And035Baseline(duration int) ([]float64, float64) {
	o34 := make([]float64, duration)
	var numerator, denominator float64
	for t := 0; t < duration; t++ {
		v := m.Coeffs.AV1 + m.Coeffs.AV2*m.O21[t] + m.Coeffs.AV3*m.O22[t] + m.Coeffs.AV4*m.O21[t]*m.O22[t]
		v = numeric.Constrain(v, 1, 5)

		if m.Amendments.Audiovisual {
			v = (1-math.Max(0, m.Coeffs.Amendment1AThreshold-m.O21[t]))*(v-1) + 1
		}
		o34[t] = v

		w1 := m.Coeffs.T1 + m.Coeffs.T2*math.Exp((float64(t)/float64(duration))/m.Coeffs.T3)
		w2 := m.Coeffs.T4 - m.Coeffs.T5*v

		numerator += w1 * w2 * v
		denominator += w1 * w2
	}
	return o34, numerator / denominator
}

// calcQdir computes the longest stable-quality period and the total
// number of direction changes in the smoothed video quality track,
// following the 5-tap moving-average + groupby logic of Clause 8.1.2.4/5.
func (m *Model) calcQdir() (longest int, total int) {
	const maOrder = 5
	padded := make([]float64, 0, len(m.O22)+2*(maOrder-1))
	first, last := m.O22[0], m.O22[len(m.O22)-1]
	for i := 0; i < maOrder-1; i++ {
		padded = append(padded, first)
	}
	padded = append(padded, m.O22...)
	for i := 0; i < maOrder-1; i++ {
		padded = append(padded, last)
	}

	maFiltered := make([]float64, 0, len(padded)-maOrder+1)
	for i := 0; i+maOrder <= len(padded); i++ {
		var sum float64
		for j := 0; j < maOrder; j++ {
			sum += padded[i+j]
		}
		maFiltered = append(maFiltered, sum/maOrder)
	}

	const step = 3
	const thresh = 0.2
	var qc []int
	for i := 0; i+step < len(maFiltered); i += step {
		diff := maFiltered[i+step] - maFiltered[i]
		switch {
		case diff > thresh:
			qc = append(qc, 1)
		case diff > -thresh && diff < thresh:
			qc = append(qc, 0)
		default:
			qc = append(qc, -1)
		}
	}

	type lenEntry struct {
		index int
		value int
	}
	var lens []lenEntry
	for index, val := range qc {
		if val == 0 {
			continue
		}
		if len(lens) > 0 && lens[len(lens)-1].value != val {
			lens = append(lens, lenEntry{index, val})
		}
		if len(lens) == 0 {
			lens = append(lens, lenEntry{index, val})
		}
	}

	if len(lens) > 0 {
		full := make([]lenEntry, 0, len(lens)+2)
		full = append(full, lenEntry{0, 0})
		full = append(full, lens...)
		full = append(full, lenEntry{len(qc), 0})

		longestDistance := 0
		for i := 1; i < len(full); i++ {
			d := full[i].index - full[i-1].index
			if d > longestDistance {
				longestDistance = d
			}
		}
		longest = longestDistance * step
	} else {
		longest = len(qc) * step
	}

	total = groupCount(qc)
	return longest, total
}

func groupCount(xs []int) int {
	var nonZero []int
	for _, x := range xs {
		if x != 0 {
			nonZero = append(nonZero, x)
		}
	}
	if len(nonZero) == 0 {
		return 0
	}
	count := 1
	for i := 1; i < len(nonZero); i++ {
		if nonZero[i] != nonZero[i-1] {
			count++
		}
	}
	return count
}

func (m *Model) calcAndTestOsc(duration, qDirChangesLongest, qDirChangesTot int, vidQualSpread float64) float64 {
	oscTest := float64(qDirChangesLongest)/float64(duration) < 0.25 && qDirChangesLongest < 30
	if !oscTest {
		return 0
	}
	qDiff := math.Max(0.0, 1+math.Log10(vidQualSpread+0.001))
	return numeric.Constrain(qDiff*math.Exp(m.Coeffs.Comp1*float64(qDirChangesTot)+m.Coeffs.Comp2), 0.0, 1.5)
}

// Calculate runs Pq end to end.
func (m *Model) Calculate() (Result, error) {
	if !m.hasVideo {
		return Result{}, perror.New(perror.KindSchema, "O22 has no scores; Pq model is not valid without video")
	}

	duration := len(m.O22)
	if !m.hasAudio {
		m.O21 = make([]float64, duration)
		for i := range m.O21 {
			m.O21[i] = 5.0
		}
	} else if len(m.O21) < duration {
		duration = len(m.O21)
	}

	totalStallLen, numStalls, avgStallInterval := m.calcStallingFeatures(duration)

	vidQualSpread := maxOf(m.O22) - minOf(m.O22)
	vidQualChangeRate := m.calcVideoQualityChangeRate(duration)

	qDirChangesLongest, qDirChangesTot := m.calcQdir()

	o34, o35Baseline := m.calc034And035Baseline(duration)

	var o35 float64
	if m.Amendments.App2 {
		o35 = o35Baseline
	} else {
		negPercInput := make([]float64, duration)
		for i := 0; i < duration; i++ {
			wDiff := numeric.Exponential(1, m.Coeffs.C1, 0, m.Coeffs.C2, float64(duration-i-1))
			negPercInput[i] = (o34[i] - o35Baseline) * wDiff
		}
		negPerc := numeric.Percentile(negPercInput, 10)
		negativeBias := math.Max(0, -negPerc) * m.Coeffs.C23

		oscComp := m.calcAndTestOsc(duration, qDirChangesLongest, qDirChangesTot, vidQualSpread)

		var adaptComp float64
		if float64(qDirChangesLongest)/float64(duration) < 0.25 {
			adaptComp = numeric.Constrain(m.Coeffs.Comp3*vidQualSpread*vidQualChangeRate+m.Coeffs.Comp4, 0.0, 0.5)
		}

		o35 = o35Baseline - negativeBias - oscComp - adaptComp
	}

	stallingImpact := m.calcStallingImpact(numStalls, totalStallLen, duration, avgStallInterval)
	o23 := 1 + 4*stallingImpact

	mos := 1.0 + (o35-1.0)*stallingImpact

	if m.Ensemble == nil {
		return Result{}, perror.New(perror.KindUsage, "Pq requires a random-forest ensemble to compute O46")
	}
	rfScore := rf.Calculate(m.Ensemble, m.O21, m.O22, m.PBuff, m.LBuff, float64(duration))

	o46 := 0.75*numeric.Constrain(mos, 1, 5) + 0.25*rfScore

	if m.Amendments.Stalling {
		qFac := numeric.Constrain(m.Coeffs.Amendment1A1*totalStallLen+m.Coeffs.Amendment1A2, 0, 1)
		o46 = 1 + (o46-1)*qFac
	}

	o46 = m.Coeffs.F1 + m.Coeffs.F2*o46

	log.L().Debug().
		Float64("o23", o23).
		Float64("o35", o35).
		Float64("rf_score", rfScore).
		Float64("o46", o46).
		Int("num_stalls", numStalls).
		Float64("total_stall_len", totalStallLen).
		Msg("computed integration sub-terms")

	return Result{O23: o23, O34: o34, O35: o35, O46: o46}, nil
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}
