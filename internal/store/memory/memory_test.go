package memory

import (
	"testing"

	"github.com/spigell/job-triage/internal/store"
	"github.com/spigell/job-triage/internal/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}
