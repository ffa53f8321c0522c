package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/contexta-labs/contexta/internal/adapters/driven/storage/memory"
	"github.com/contexta-labs/contexta/internal/core/domain"
	"github.com/contexta-labs/contexta/internal/core/services"
)

// setupTestServices wires an engine over in-memory stores and returns
// a cleanup that restores the unconfigured state.
func setupTestServices() func() {
	store := memory.NewTextStore()
	training := memory.NewTrainingStore()
	training.Add("What is the refund policy?", "Refunds within thirty days.",
		domain.Scope{Tenant: "acme"})

	engine = services.NewEngine(store, services.NewEmbedder(nil),
		services.WithTrainingData(training))

	return func() {
		engine = nil
		tenant = ""
		assistant = ""
		verbose = false
	}
}

// writeTestFile puts a document into a temp dir and returns its path.
// The content is large enough to clear the chunker's minimum floor.
func writeTestFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "refunds.md")
	content := "Our refund policy allows returns within thirty days of purchase for any reason. " +
		"Customers receive the full amount back on the original payment method once the " +
		"returned item reaches our warehouse and passes inspection. Shipping costs are not " +
		"refunded unless the item arrived damaged or the wrong product was sent. Exchanges " +
		"follow the same thirty day window and are processed as a refund followed by a new " +
		"order. Gift purchases are refunded as store credit issued to the recipient."
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}
