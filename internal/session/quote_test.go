package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildQuote(t *testing.T) {
	cases := []struct {
		name      string
		setup     State
		wantTotal int
		wantLines int
		wantMsgs  int
	}{
		{
			name:      "rental only",
			setup:     State{CustomerSelectedType: RentalStandard},
			wantTotal: 3000,
			wantLines: 1,
		},
		{
			name: "rental plus six month membership purchase",
			setup: State{
				CustomerSelectedType: RentalDouble,
				MembershipIntent:     IntentPurchase,
				MembershipChoice:     ChoiceSixMonth,
			},
			wantTotal: 4500 + 9000,
			wantLines: 2,
		},
		{
			name: "renewal uses renewal label",
			setup: State{
				CustomerSelectedType: RentalLocker,
				MembershipIntent:     IntentRenew,
				MembershipChoice:     ChoiceOneTime,
			},
			wantTotal: 1500 + 500,
			wantLines: 2,
		},
		{
			name:      "unblocked past-due balance adds a message",
			setup:     State{CustomerSelectedType: RentalLocker, PastDueBalance: 700},
			wantTotal: 1500,
			wantLines: 1,
			wantMsgs:  1,
		},
		{
			name:      "falls back to the pending proposal",
			setup:     State{ProposedRentalType: RentalSpecial},
			wantTotal: 6000,
			wantLines: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := BuildQuote(tc.setup)
			assert.Equal(t, tc.wantTotal, q.Total)
			assert.Len(t, q.LineItems, tc.wantLines)
			assert.Len(t, q.Messages, tc.wantMsgs)
		})
	}
}
