package session

import "fmt"

// Price table in cents. Rentals are per visit; memberships are add-ons
// priced by choice. Kept here rather than in config: the register and kiosk
// only ever display what the server quoted.
var rentalPrices = map[RentalType]int{
	RentalLocker:   1500,
	RentalStandard: 3000,
	RentalDouble:   4500,
	RentalSpecial:  6000,
}

var membershipPrices = map[MembershipChoice]int{
	ChoiceOneTime:  500,
	ChoiceSixMonth: 9000,
}

// BuildQuote prices the confirmed selection plus any membership purchase or
// renewal on the session. Pure; call only after the selection is confirmed.
func BuildQuote(s State) Quote {
	var q Quote

	rt := s.CustomerSelectedType
	if rt == "" {
		rt = s.ProposedRentalType
	}
	if price, ok := rentalPrices[rt]; ok {
		q.LineItems = append(q.LineItems, QuoteLine{
			Label:  fmt.Sprintf("%s rental", rt),
			Amount: price,
		})
	}

	if s.MembershipIntent != "" && s.MembershipChoice != "" {
		label := "Membership"
		if s.MembershipIntent == IntentRenew {
			label = "Membership renewal"
		}
		q.LineItems = append(q.LineItems, QuoteLine{
			Label:  fmt.Sprintf("%s (%s)", label, s.MembershipChoice),
			Amount: membershipPrices[s.MembershipChoice],
		})
	}

	if s.PastDueBalance > 0 && !s.PastDueBlocked {
		q.Messages = append(q.Messages, fmt.Sprintf("Outstanding balance of %d cents will be collected separately.", s.PastDueBalance))
	}

	for _, line := range q.LineItems {
		q.Total += line.Amount
	}
	return q
}
