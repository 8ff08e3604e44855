package ledger

import (
	"strings"

	"github.com/shopspring/decimal"

	"kharcha/internal/core"
)

// Draft is the user input for a new or edited entry. For a split, Amount is
// the full bill; the stored entry keeps only the owner's share.
type Draft struct {
	Type        core.EntryType
	Description string
	Category    string
	Note        string
	PayMethod   core.PayMethod
	PaySubType  string
	Amount      decimal.Decimal
	Transfer    core.TransferRoute
	Split       *SplitDraft
}

type SplitDraft struct {
	Mode         core.SplitMode
	Participants []string
	// Amounts holds one custom amount per participant; ignored in equal mode.
	Amounts []decimal.Decimal
}

// build validates d and turns it into an entry without id or timestamp.
func build(l *core.Ledger, d Draft) (core.Entry, error) {
	e := core.Entry{
		Type:        d.Type,
		Description: strings.TrimSpace(d.Description),
		Category:    strings.TrimSpace(d.Category),
		Note:        strings.TrimSpace(d.Note),
		PayMethod:   d.PayMethod,
		PaySubType:  strings.TrimSpace(d.PaySubType),
	}
	if e.Type == "" {
		e.Type = core.Expense
	}
	if e.PayMethod == "" {
		e.PayMethod = core.Cash
	}

	if e.Description == "" {
		return core.Entry{}, core.Invalid("description", core.ErrEmptyDescription)
	}
	if !e.Type.IsValid() {
		return core.Entry{}, core.Invalid("type", core.ErrInvalidType)
	}
	if !e.PayMethod.IsValid() {
		return core.Entry{}, core.Invalid("payMethod", core.ErrInvalidPayMethod)
	}

	total := core.Round2(d.Amount)
	if !total.IsPositive() {
		return core.Entry{}, core.Invalid("amount", core.ErrNonPositiveAmount)
	}

	if e.Type == core.Transfer || e.PayMethod == core.SelfTransfer {
		e.Type = core.Transfer
		e.Amount = total
		e.Transfer = &core.TransferRoute{
			From: strings.TrimSpace(d.Transfer.From),
			To:   strings.TrimSpace(d.Transfer.To),
		}
		return e, nil
	}

	if bank, ok := l.MappedBank(e.PayMethod, e.PaySubType); ok {
		e.MappedBank = bank
	}

	if d.Split == nil {
		e.Amount = total
		return e, nil
	}

	split, err := buildSplit(total, *d.Split)
	if err != nil {
		return core.Entry{}, err
	}
	e.Split = split
	e.Amount = split.MyShare
	return e, nil
}

func buildSplit(total decimal.Decimal, d SplitDraft) (*core.Split, error) {
	var names []string
	for _, n := range d.Participants {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return nil, core.Invalid("split", core.ErrNoParticipants)
	}

	s := &core.Split{Enabled: true, Mode: d.Mode}
	switch d.Mode {
	case core.SplitEqual, "":
		s.Mode = core.SplitEqual
		per := EqualShare(total, len(names))
		for _, n := range names {
			s.Participants = append(s.Participants, core.Participant{Name: n, Amount: per})
		}
		s.MyShare = per
	case core.SplitCustom:
		if len(d.Amounts) != len(names) {
			return nil, core.Invalid("split", core.ErrSplitCountMismatch)
		}
		myShare, err := CustomShare(total, d.Amounts)
		if err != nil {
			return nil, err
		}
		for i, n := range names {
			s.Participants = append(s.Participants, core.Participant{Name: n, Amount: core.Round2(d.Amounts[i])})
		}
		s.MyShare = myShare
	default:
		return nil, core.Invalid("split", core.ErrInvalidSplitMode)
	}
	s.Recompute()
	return s, nil
}

// EqualShare divides total across participants plus the owner. Each share is
// rounded on its own, so the shares may not add back to total.
func EqualShare(total decimal.Decimal, participants int) decimal.Decimal {
	return core.Round2(total.Div(decimal.NewFromInt(int64(participants + 1))))
}

// CustomShare returns the owner's share left after the participants' amounts.
func CustomShare(total decimal.Decimal, amounts []decimal.Decimal) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, a := range amounts {
		if a.IsNegative() {
			return decimal.Zero, core.Invalid("split", core.ErrInvalidAmount)
		}
		sum = sum.Add(a)
	}
	myShare := core.Round2(total.Sub(sum))
	if myShare.IsNegative() {
		return decimal.Zero, core.Invalid("split", core.ErrNegativeShare)
	}
	return myShare, nil
}

func registerValue(name string) (string, error) {
	v := strings.TrimSpace(name)
	if v == "" {
		return "", core.Invalid("paySubType", core.ErrEmptyInstrument)
	}
	return v, nil
}
