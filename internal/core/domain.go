package core

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Expense  EntryType = "Expense"
	Income   EntryType = "Income"
	Transfer EntryType = "Transfer"
)

const (
	Cash         PayMethod = "Cash"
	UPI          PayMethod = "UPI"
	Card         PayMethod = "Card"
	Bank         PayMethod = "Bank"
	SelfTransfer PayMethod = "Self transfer"
)

const (
	SplitEqual  SplitMode = "equal"
	SplitCustom SplitMode = "custom"
)

const (
	SplitPending   SplitStatus = "pending"
	SplitPartially SplitStatus = "partially"
	SplitSettled   SplitStatus = "settled"
)

// Uncategorized is the category reported for entries without one.
const Uncategorized = "Uncategorized"

const dayLayout = "2006-01-02"

type (
	EntryType   string
	PayMethod   string
	SplitMode   string
	SplitStatus string

	// Day is an ISO calendar date (YYYY-MM-DD). It is the storage key of an
	// entry bucket in the ledger document.
	Day string

	// EntryID identifies an entry across the whole ledger.
	EntryID string

	Entry struct {
		ID          EntryID         `json:"id"`
		Type        EntryType       `json:"type"`
		Description string          `json:"description"`
		Category    string          `json:"category,omitempty"`
		PayMethod   PayMethod       `json:"payMethod,omitempty"`
		PaySubType  string          `json:"paySubType,omitempty"`
		Amount      decimal.Decimal `json:"amount"`
		Note        string          `json:"note,omitempty"`
		MappedBank  string          `json:"mappedBank,omitempty"` // snapshot of the payment mapping at write time
		CreatedAt   time.Time       `json:"createdAt"`
		Transfer    *TransferRoute  `json:"transfer,omitempty"`
		Split       *Split          `json:"split,omitempty"`
	}

	// TransferRoute names the banks a self transfer moves money between.
	TransferRoute struct {
		From string `json:"from"`
		To   string `json:"to"`
	}

	Participant struct {
		Name     string          `json:"name"`
		Amount   decimal.Decimal `json:"amount"`
		Received bool            `json:"received"`
	}

	// Split records a group expense the owner paid in full. The owning
	// entry's Amount holds only MyShare.
	Split struct {
		Enabled      bool            `json:"enabled"`
		Participants []Participant   `json:"participants"`
		MyShare      decimal.Decimal `json:"myShare"`
		Mode         SplitMode       `json:"mode"`
		Status       SplitStatus     `json:"status"`
	}
)

func (t EntryType) IsValid() bool {
	switch t {
	case Expense, Income, Transfer:
		return true
	}
	return false
}

func (m PayMethod) IsValid() bool {
	switch m {
	case Cash, UPI, Card, Bank, SelfTransfer:
		return true
	}
	return false
}

func (m SplitMode) IsValid() bool {
	return m == SplitEqual || m == SplitCustom
}

// ParseDay validates s as YYYY-MM-DD.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, strings.TrimSpace(s))
	if err != nil {
		return "", ErrInvalidDate
	}
	return DayOf(t), nil
}

// DayOf returns the calendar day of t in its own location.
func DayOf(t time.Time) Day {
	return Day(t.Format(dayLayout))
}

// Today returns the local calendar day.
func Today() Day {
	return DayOf(time.Now())
}

func (d Day) String() string { return string(d) }

// Month returns the YYYY-MM prefix of the day.
func (d Day) Month() string {
	if len(d) < 7 {
		return string(d)
	}
	return string(d[:7])
}

// Year returns the YYYY prefix of the day.
func (d Day) Year() string {
	if len(d) < 4 {
		return string(d)
	}
	return string(d[:4])
}

// ParseMonth validates s as YYYY-MM.
func ParseMonth(s string) (string, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return "", ErrInvalidMonth
	}
	return t.Format("2006-01"), nil
}

// UnmarshalJSON accepts both string ids and the numeric millisecond ids
// written by older backups.
func (id *EntryID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = EntryID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = EntryID(n.String())
	return nil
}

// Compare orders ids by creation. Legacy numeric ids are Unix milliseconds
// and UUIDv7 ids carry their creation millisecond, so the two kinds compare
// by time. Ties and other ids fall back to lexical order.
func (id EntryID) Compare(other EntryID) int {
	a, okA := id.millis()
	b, okB := other.millis()
	if okA && okB && a != b {
		if a < b {
			return -1
		}
		return 1
	}
	return strings.Compare(string(id), string(other))
}

func (id EntryID) millis() (int64, bool) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return n, true
	}
	u, err := uuid.Parse(string(id))
	if err != nil || u.Version() != 7 {
		return 0, false
	}
	var ms int64
	for _, b := range u[:6] {
		ms = ms<<8 | int64(b)
	}
	return ms, true
}

// HasSplit reports whether the entry is an enabled group split.
func (e Entry) HasSplit() bool {
	return e.Split != nil && e.Split.Enabled
}

// CategoryOrDefault returns the entry category or Uncategorized.
func (e Entry) CategoryOrDefault() string {
	if e.Category == "" {
		return Uncategorized
	}
	return e.Category
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	c := e
	if e.Transfer != nil {
		t := *e.Transfer
		c.Transfer = &t
	}
	if e.Split != nil {
		s := *e.Split
		s.Participants = append([]Participant(nil), e.Split.Participants...)
		c.Split = &s
	}
	return c
}

// Recompute derives Status from the participants' received flags.
func (s *Split) Recompute() {
	received := 0
	for _, p := range s.Participants {
		if p.Received {
			received++
		}
	}
	switch {
	case len(s.Participants) > 0 && received == len(s.Participants):
		s.Status = SplitSettled
	case received > 0:
		s.Status = SplitPartially
	default:
		s.Status = SplitPending
	}
}

// Outstanding sums the amounts not yet received.
func (s *Split) Outstanding() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.Participants {
		if !p.Received {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// Record is an entry tagged with the day bucket it is stored under.
type Record struct {
	Day   Day   `json:"date"`
	Entry Entry `json:"entry"`
}
