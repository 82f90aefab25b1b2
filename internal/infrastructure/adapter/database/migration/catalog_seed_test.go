package migration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	names := map[string]bool{}

	for _, params := range DefaultCatalog() {
		t.Run(params.Name, func(t *testing.T) {
			pkg, err := entity.NewPackage(params, now)
			require.NoError(t, err)
			assert.True(t, pkg.IsActive)
			assert.True(t, pkg.DailyProfit.IsPositive())
			assert.False(t, names[pkg.Name], "names are unique")
			names[pkg.Name] = true
		})
	}

	starter, err := entity.NewPackage(DefaultCatalog()[0], now)
	require.NoError(t, err)
	assert.Equal(t, "11.67", entity.FormatAmount(starter.DailyProfit))
}
