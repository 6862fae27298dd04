package di

import (
	"io"

	"github.com/aristath/lcdash/internal/modules/catalog"
	"github.com/aristath/lcdash/internal/modules/dashboard"
	"github.com/aristath/lcdash/internal/warehouse"
)

// Container holds the wired application components.
type Container struct {
	Catalog   *catalog.Catalog    // Reference data for filters and office mapping
	Connector warehouse.Connector // Warehouse selected by LCDASH_BACKEND
	Dashboard *dashboard.Service  // Render cycle orchestration
}

// Close releases the warehouse when it holds local resources.
func (c *Container) Close() error {
	if closer, ok := c.Connector.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
