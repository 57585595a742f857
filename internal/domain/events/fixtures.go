package events

import (
	"time"

	"github.com/PredictChain/server/internal/domain/ids"
)

const fixtureWallet = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"

var fixtureEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Fixtures returns the seed set written by ResetFixtures. Identifiers are
// stable across calls and sort in the order listed.
func Fixtures() []Event {
	image := "https://images.predictchain.dev/fixtures/btc.png"
	seed := []Event{
		{
			Name:           "BTC above 100k by year end",
			Category:       "Crypto",
			Description:    "Resolves YES if the BTC/USD spot price closes above 100,000 on December 31.",
			ResolutionDate: "1735689599000",
			ImageLink:      &image,
			EventPublicKey: "9Pq6Yb1qWd3oVGT2d1YnXq4sRk2F8VfZJ4m9rS7tHcAb",
			IsApproved:     true,
		},
		{
			Name:           "Home team wins the final",
			Category:       "Sports",
			Description:    "Resolves YES if the home team lifts the trophy.",
			ResolutionDate: "1720000000000",
			EventPublicKey: "4Zk8nTq1UvW2xY3aB5cD6eF7gH8iJ9kL1mN2oP3qR4sT",
			IsApproved:     true,
		},
		{
			Name:           "Rain in Seattle tomorrow",
			Category:       "Weather",
			Description:    "Resolves YES if measurable precipitation is recorded at SEA.",
			ResolutionDate: "1700000000000",
			EventPublicKey: "2Bc3De4Fg5Hi6Jk7Lm8No9Pq1Rs2Tu3Vw4Xy5Za6Bc7D",
			IsApproved:     true,
		},
		{
			Name:           "New L1 launches mainnet in Q3",
			Category:       "Crypto",
			Description:    "Resolves YES if mainnet is live before October 1.",
			ResolutionDate: "1727740800000",
		},
		{
			Name:           "Election turnout exceeds 60%",
			Category:       "Politics",
			Description:    "Resolves YES if official turnout is above 60 percent.",
			ResolutionDate: "1730851200000",
		},
	}

	out := make([]Event, 0, len(seed))
	for i, e := range seed {
		e.ID = ids.ULIDAt(fixtureEpoch, uint64(i+1))
		e.WalletID = fixtureWallet
		out = append(out, e)
	}
	return out
}
