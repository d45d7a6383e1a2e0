// ABOUTME: Tests for capture-server browse query construction
package discovery

import (
	"testing"
	"time"

	"github.com/hashicorp/mdns"
)

func TestQueryParams(t *testing.T) {
	entries := make(chan *mdns.ServiceEntry, 1)
	params := queryParams(entries)

	if params.Service != ServiceType {
		t.Errorf("Expected service %s, got %s", ServiceType, params.Service)
	}
	if params.Domain != "local" {
		t.Errorf("Expected local domain, got %s", params.Domain)
	}
	// The timeout paces the browse loop; a sub-second value would spin
	if params.Timeout < time.Second {
		t.Errorf("Query timeout too short: %v", params.Timeout)
	}
}
