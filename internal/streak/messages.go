package streak

import (
	"bytes"
	_ "embed"
	"fmt"
	"hash/fnv"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var embeddedMessages []byte

var (
	defaultMessages     *Messages
	defaultMessagesOnce sync.Once
)

// Milestones are the exact streak lengths with their own celebration pool.
var Milestones = []int{7, 14, 21, 30, 60, 90, 120, 150, 180, 210, 240, 270, 300, 330, 365}

// RangePool holds messages for streaks in [Min, Max]. Max 0 means unbounded.
type RangePool struct {
	Min      int      `yaml:"min"`
	Max      int      `yaml:"max"`
	Messages []string `yaml:"messages"`
}

func (r RangePool) contains(n int) bool {
	return n >= r.Min && (r.Max == 0 || n <= r.Max)
}

// Messages holds every pool. It is read-only once loaded.
type Messages struct {
	Default     []string         `yaml:"default"`
	WithHistory []string         `yaml:"with_history"`
	Warning     []string         `yaml:"warning"`
	Milestones  map[int][]string `yaml:"milestones"`
	Ranges      []RangePool      `yaml:"ranges"`
}

// Context is the input to message selection.
type Context struct {
	CurrentStreak int
	LongestStreak int
	HasReadToday  bool
	State         State
	Now           time.Time
	Seed          string
}

// DefaultMessages returns the embedded pools, parsed once.
func DefaultMessages() *Messages {
	defaultMessagesOnce.Do(func() {
		m, err := LoadMessages(bytes.NewReader(embeddedMessages))
		if err != nil {
			panic(fmt.Sprintf("streak: invalid embedded messages: %v", err))
		}
		defaultMessages = m
	})
	return defaultMessages
}

// LoadMessages parses message pools from YAML.
func LoadMessages(r io.Reader) (*Messages, error) {
	var m Messages
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	if len(m.Default) == 0 || len(m.WithHistory) == 0 || len(m.Warning) == 0 {
		return nil, fmt.Errorf("default, with_history and warning pools must not be empty")
	}
	for _, ms := range Milestones {
		if len(m.Milestones[ms]) == 0 {
			return nil, fmt.Errorf("milestone %d has no messages", ms)
		}
	}
	sort.Slice(m.Ranges, func(i, j int) bool { return m.Ranges[i].Min < m.Ranges[j].Min })
	return &m, nil
}

// IsMilestone reports whether n is one of Milestones.
func IsMilestone(n int) bool {
	i := sort.SearchInts(Milestones, n)
	return i < len(Milestones) && Milestones[i] == n
}

// SelectMessage picks a message from the embedded pools.
func SelectMessage(c Context) string {
	return DefaultMessages().Select(c)
}

// Select picks the message for c. Active readers who have not read yet today
// get no message. Exact milestones always win over range buckets.
func (m *Messages) Select(c Context) string {
	switch c.State {
	case Inactive:
		if c.LongestStreak > 0 {
			return pick(m.WithHistory, c)
		}
		return pick(m.Default, c)
	case Warning:
		msg := pick(m.Warning, c)
		return strings.ReplaceAll(msg, "{streak}", strconv.Itoa(c.CurrentStreak))
	case Active:
		if !c.HasReadToday {
			return ""
		}
		if IsMilestone(c.CurrentStreak) {
			if pool := m.Milestones[c.CurrentStreak]; len(pool) > 0 {
				return pick(pool, c)
			}
		}
		for _, r := range m.Ranges {
			if r.contains(c.CurrentStreak) {
				return pick(r.Messages, c)
			}
		}
	}
	return ""
}

// pick is stable for a given day and input, and rotates as the date changes.
func pick(pool []string, c Context) string {
	if len(pool) == 0 {
		return ""
	}
	h := fnv.New32a()
	fmt.Fprintf(h, "%s|%s|%s|%d", c.Now.Format("2006-01-02"), c.Seed, c.State, c.CurrentStreak)
	return pool[h.Sum32()%uint32(len(pool))]
}
