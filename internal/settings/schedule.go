package settings

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule maps each weekday to a set of "HH:MM" publication slots.
// Order of the values is irrelevant; comparison is set-wise.
type Schedule struct {
	Monday    []string `json:"monday,omitempty"`
	Tuesday   []string `json:"tuesday,omitempty"`
	Wednesday []string `json:"wednesday,omitempty"`
	Thursday  []string `json:"thursday,omitempty"`
	Friday    []string `json:"friday,omitempty"`
	Saturday  []string `json:"saturday,omitempty"`
	Sunday    []string `json:"sunday,omitempty"`
}

// Times returns the normalized slot set for the given weekday.
func (s Schedule) Times(day time.Weekday) []string {
	switch day {
	case time.Monday:
		return NormalizeTimes(s.Monday)
	case time.Tuesday:
		return NormalizeTimes(s.Tuesday)
	case time.Wednesday:
		return NormalizeTimes(s.Wednesday)
	case time.Thursday:
		return NormalizeTimes(s.Thursday)
	case time.Friday:
		return NormalizeTimes(s.Friday)
	case time.Saturday:
		return NormalizeTimes(s.Saturday)
	default:
		return NormalizeTimes(s.Sunday)
	}
}

// Normalized returns a copy with every day's slot set normalized.
func (s Schedule) Normalized() Schedule {
	return Schedule{
		Monday:    NormalizeTimes(s.Monday),
		Tuesday:   NormalizeTimes(s.Tuesday),
		Wednesday: NormalizeTimes(s.Wednesday),
		Thursday:  NormalizeTimes(s.Thursday),
		Friday:    NormalizeTimes(s.Friday),
		Saturday:  NormalizeTimes(s.Saturday),
		Sunday:    NormalizeTimes(s.Sunday),
	}
}

// NormalizeTimes canonicalizes a slot list to zero-padded "HH:MM" values.
// Out-of-range hours and minutes are clamped, duplicates collapse, blank
// entries drop. Normalizing an already-normalized list yields the same list.
func NormalizeTimes(times []string) []string {
	if len(times) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(times))
	out := make([]string, 0, len(times))
	for _, t := range times {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		h, m := splitHHMM(t)
		v := fmt.Sprintf("%02d:%02d", clamp(h, 0, 23), clamp(m, 0, 59))
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func splitHHMM(t string) (int, int) {
	hh, mm, found := strings.Cut(t, ":")
	h, _ := strconv.Atoi(strings.TrimSpace(hh))
	m := 0
	if found {
		m, _ = strconv.Atoi(strings.TrimSpace(mm))
	}
	return h, m
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
