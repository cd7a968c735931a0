package settlement

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestSplitConservesPool verifies fee + share == pool and fee == floor(pool/100)
func TestSplitConservesPool(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("split conserves the pool", prop.ForAll(
		func(pool uint64) bool {
			fee, share := Split(pool)
			return fee+share == pool && fee == pool/100 && share >= fee
		},
		gen.UInt64(),
	))

	properties.TestingRun(t)
}

// TestPooledPlanDrainsVault verifies a pooled plan always pays exactly the pool
func TestPooledPlanDrainsVault(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	feeAccount := solana.NewWallet().PublicKey()
	pool := make([]solana.PublicKey, 10)
	for i := range pool {
		pool[i] = solana.NewWallet().PublicKey()
	}

	properties.Property("pooled payouts sum to the prize pool", prop.ForAll(
		func(prize uint64, n int) bool {
			plan, err := PlanPooled(prize, pool[:n], feeAccount)
			if err != nil {
				return false
			}
			total, err := plan.Total()
			if err != nil {
				return false
			}
			return total == prize && plan.Fee() == prize/100
		},
		gen.UInt64Range(0, 1<<62),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t)
}
