// ABOUTME: mDNS browsing for key-capture servers on the local network
// ABOUTME: Used when no server address is configured
package discovery

import (
	"context"
	"log"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service advertised by the capture server
const ServiceType = "_soundlink-input._tcp"

// ServerInfo describes a discovered capture server
type ServerInfo struct {
	Name string
	Host string
	Port int
}

// Manager browses for capture servers
type Manager struct {
	ctx     context.Context
	cancel  context.CancelFunc
	servers chan *ServerInfo
}

// NewManager creates a discovery manager
func NewManager() *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		ctx:     ctx,
		cancel:  cancel,
		servers: make(chan *ServerInfo, 10),
	}
}

// Browse starts searching for capture servers in the background
func (m *Manager) Browse() {
	go m.browseLoop()
}

// browseLoop issues repeated mDNS queries until stopped
func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)

		go func() {
			for entry := range entries {
				if entry.AddrV4 == nil {
					continue
				}
				server := &ServerInfo{
					Name: entry.Name,
					Host: entry.AddrV4.String(),
					Port: entry.Port,
				}

				log.Printf("Discovered capture server: %s at %s:%d", server.Name, server.Host, server.Port)

				select {
				case m.servers <- server:
				case <-m.ctx.Done():
					return
				}
			}
		}()

		mdns.Query(queryParams(entries))
		close(entries)
	}
}

// queryParams builds one browse query; each query blocks for the timeout
// before the loop issues the next one
func queryParams(entries chan *mdns.ServiceEntry) *mdns.QueryParam {
	return &mdns.QueryParam{
		Service: ServiceType,
		Domain:  "local",
		Timeout: 3 * time.Second,
		Entries: entries,
	}
}

// Servers returns the channel of discovered servers
func (m *Manager) Servers() <-chan *ServerInfo {
	return m.servers
}

// Stop stops browsing
func (m *Manager) Stop() {
	m.cancel()
}
