package audio

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var labelPattern = regexp.MustCompile(`^\[(\d+)\]\s*(.*)$`)

// parseLabel splits "[3] Foo" into its index and name. Labels without a
// leading index return hasIndex false and the trimmed label as name.
func parseLabel(label string) (index int, name string, hasIndex bool) {
	label = strings.TrimSpace(label)
	m := labelPattern.FindStringSubmatch(label)
	if m == nil {
		return -1, label, false
	}
	idx, err := strconv.Atoi(m[1])
	if err != nil {
		return -1, label, false
	}
	return idx, strings.TrimSpace(m[2]), true
}

// IsDefaultTarget reports whether target asks for the system default device.
func IsDefaultTarget(target string) bool {
	t := strings.TrimSpace(target)
	return t == "" || strings.EqualFold(t, "default")
}

// Resolve maps a symbolic device target onto a concrete input device.
//
// An empty or "Default" target uses the system default input, then the best
// scored input device. A "[N] Name" target accepts index N only when the
// device stored there still matches Name, which guards against index drift.
// A bare "[N]" accepts whatever input device sits at index N.
// Any other target, or a drifted index, falls back to the first input device
// in enumeration order whose name contains the target name. No match returns
// a DeviceUnavailable failure.
func Resolve(l Lister, target string) (Device, error) {
	if IsDefaultTarget(target) {
		if dev, err := l.DefaultInput(); err == nil && dev.MaxInput > 0 {
			return dev, nil
		}
		devices, err := l.Devices()
		if err != nil {
			return Device{}, unavailable("resolve default", err)
		}
		if dev, ok := pickBestDevice(devices); ok {
			return dev, nil
		}
		return Device{}, unavailable("resolve default", ErrNoDevice)
	}

	devices, err := l.Devices()
	if err != nil {
		return Device{}, unavailable("resolve "+target, err)
	}

	index, name, hasIndex := parseLabel(target)
	want := strings.ToLower(name)

	if hasIndex {
		for _, d := range devices {
			if d.Index != index || d.MaxInput <= 0 {
				continue
			}
			have := strings.ToLower(d.Name)
			if want == "" || strings.Contains(have, want) || strings.Contains(want, have) {
				return d, nil
			}
			break
		}
	}

	if want != "" {
		for _, d := range devices {
			if d.MaxInput <= 0 {
				continue
			}
			if strings.Contains(strings.ToLower(d.Name), want) {
				return d, nil
			}
		}
	}

	return Device{}, unavailable("resolve "+target, errors.Wrapf(ErrNoDevice, "%q", target))
}

func pickBestDevice(devices []Device) (Device, bool) {
	type scored struct {
		dev   Device
		score int
	}

	var (
		results  []scored
		keywords = []string{"monitor", "loopback", "mix", "stereo mix", "what u hear"}
	)

	for _, d := range devices {
		if d.MaxInput <= 0 {
			continue
		}

		score := d.MaxInput
		if d.IsDefaultInput {
			score += 50
		}

		lower := strings.ToLower(d.Name)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				score += 20
				break
			}
		}
		if strings.Contains(lower, "default") {
			score += 10
		}

		results = append(results, scored{dev: d, score: score})
	}

	if len(results) == 0 {
		return Device{}, false
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score == results[j].score {
			return strings.ToLower(results[i].dev.Name) < strings.ToLower(results[j].dev.Name)
		}
		return results[i].score > results[j].score
	})
	return results[0].dev, true
}
