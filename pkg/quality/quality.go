// Bad frame detection for webcam stills
package quality

import (
	"fmt"

	"github.com/1F47E/go-timereel/pkg/frame"
)

type Reason string

const (
	ReasonOK           Reason = "ok"
	ReasonUnreadable   Reason = "unreadable"
	ReasonTooSmall     Reason = "too_small"
	ReasonLowStd       Reason = "low_std"
	ReasonMostlyBlack  Reason = "mostly_black"
	ReasonMostlyWhite  Reason = "mostly_white"
	ReasonDominantBin  Reason = "dominant_bin"
	ReasonHalfBlank    Reason = "half_blank"
	ReasonHalfWhite    Reason = "half_white"
	ReasonExcessiveLap Reason = "excessive_lap"
)

// Thresholds tune every check. Ratios are fractions of all pixels,
// levels are 8 bit gray intensities.
type Thresholds struct {
	MinDim           int     `yaml:"min_dim"`
	MinStd           float64 `yaml:"min_std"`
	BlackLevel       int     `yaml:"black_level"`
	WhiteLevel       int     `yaml:"white_level"`
	BlackRatio       float64 `yaml:"black_ratio"`
	WhiteRatio       float64 `yaml:"white_ratio"`
	DominantBinRatio float64 `yaml:"dominant_bin_ratio"`
	HalfDiff         float64 `yaml:"half_diff"`
	// a half counts as blank/white when its mean is within HalfMargin of the black/white level
	HalfMargin      float64 `yaml:"half_margin"`
	MaxLaplacianVar float64 `yaml:"max_laplacian_var"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MinDim:           100,
		MinStd:           8,
		BlackLevel:       15,
		WhiteLevel:       240,
		BlackRatio:       0.55,
		WhiteRatio:       0.55,
		DominantBinRatio: 0.55,
		HalfDiff:         60,
		HalfMargin:       10,
		MaxLaplacianVar:  1e6,
	}
}

func (t Thresholds) Validate() error {
	if t.MinDim < 1 {
		return fmt.Errorf("quality.min_dim must be positive, got %d", t.MinDim)
	}
	if t.BlackLevel < 0 || t.BlackLevel > 255 || t.WhiteLevel < 0 || t.WhiteLevel > 255 {
		return fmt.Errorf("quality levels must be in [0, 255], got black=%d white=%d", t.BlackLevel, t.WhiteLevel)
	}
	if t.BlackLevel >= t.WhiteLevel {
		return fmt.Errorf("quality.black_level %d must be below white_level %d", t.BlackLevel, t.WhiteLevel)
	}
	for name, r := range map[string]float64{
		"black_ratio":        t.BlackRatio,
		"white_ratio":        t.WhiteRatio,
		"dominant_bin_ratio": t.DominantBinRatio,
	} {
		if r <= 0 || r > 1 {
			return fmt.Errorf("quality.%s must be in (0, 1], got %v", name, r)
		}
	}
	if t.MinStd < 0 || t.HalfDiff < 0 || t.HalfMargin < 0 || t.MaxLaplacianVar <= 0 {
		return fmt.Errorf("quality thresholds must not be negative")
	}
	return nil
}

type Verdict struct {
	Accepted bool
	Reason   Reason
	// Detail is the reason with the measured value, e.g. low_std(0.00)
	Detail string
}

func (v Verdict) String() string {
	if v.Accepted {
		return string(ReasonOK)
	}
	return v.Detail
}

func accept() Verdict {
	return Verdict{Accepted: true, Reason: ReasonOK, Detail: string(ReasonOK)}
}

func reject(r Reason, format string, args ...any) Verdict {
	detail := string(r)
	if format != "" {
		detail += "(" + fmt.Sprintf(format, args...) + ")"
	}
	return Verdict{Reason: r, Detail: detail}
}

type Classifier struct {
	t Thresholds
}

func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{t: t}
}

func (c *Classifier) Thresholds() Thresholds { return c.t }

// Classify runs the checks in a fixed order and stops at the first failure,
// so a rejected frame always reports exactly one reason.
func (c *Classifier) Classify(f frame.Frame) Verdict {
	t := c.t

	if !f.OK() {
		return reject(ReasonUnreadable, "")
	}

	w, h := f.Size()
	if w < t.MinDim || h < t.MinDim {
		return reject(ReasonTooSmall, "%dx%d", w, h)
	}

	g := toGray(f.Image())
	total := float64(len(g.pix))

	if std := g.std(); std < t.MinStd {
		return reject(ReasonLowStd, "%.2f", std)
	}

	hist := g.histogram()
	var black, white, dominant int
	for level, n := range hist {
		if level <= t.BlackLevel {
			black += n
		}
		if level >= t.WhiteLevel {
			white += n
		}
		if n > dominant {
			dominant = n
		}
	}
	if r := float64(black) / total; r >= t.BlackRatio {
		return reject(ReasonMostlyBlack, "%.2f", r)
	}
	if r := float64(white) / total; r >= t.WhiteRatio {
		return reject(ReasonMostlyWhite, "%.2f", r)
	}
	if r := float64(dominant) / total; r >= t.DominantBinRatio {
		return reject(ReasonDominantBin, "%.2f", r)
	}

	// partial transmission: one half fine, the other blank or blown out
	left, right := g.halfMeans()
	if diff := left - right; diff > t.HalfDiff || -diff > t.HalfDiff {
		blankAt := float64(t.BlackLevel) + t.HalfMargin
		whiteAt := float64(t.WhiteLevel) - t.HalfMargin
		if left <= blankAt || right <= blankAt {
			return reject(ReasonHalfBlank, "L=%.1f,R=%.1f", left, right)
		}
		if left >= whiteAt || right >= whiteAt {
			return reject(ReasonHalfWhite, "L=%.1f,R=%.1f", left, right)
		}
	}

	if lap := g.laplacianVar(); lap > t.MaxLaplacianVar {
		return reject(ReasonExcessiveLap, "%.0f", lap)
	}

	return accept()
}
