// ABOUTME: mDNS advertisement and lookup of the diagnostics endpoint
// ABOUTME: Service type _clickmute._tcp with the status path in TXT records
package discovery

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/sirupsen/logrus"
)

// ServiceType is the DNS-SD service type of the diagnostics server
const ServiceType = "_clickmute._tcp"

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	Version     string
}

// Manager handles mDNS operations
type Manager struct {
	config Config
	ctx    context.Context
	cancel context.CancelFunc
}

// Instance describes a discovered diagnostics server
type Instance struct {
	Name string
	Host string
	Port int
	Info []string
}

// StatusURL is where the instance serves its JSON status
func (i Instance) StatusURL() string {
	return fmt.Sprintf("http://%s/status", net.JoinHostPort(i.Host, fmt.Sprint(i.Port)))
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (m *Manager) txtRecords() []string {
	txt := []string{"path=/status", "ws=/ws"}
	if m.config.Version != "" {
		txt = append(txt, "version="+m.config.Version)
	}
	return txt
}

// Advertise announces the diagnostics endpoint until Stop
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		m.txtRecords(),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"name": m.config.ServiceName,
		"port": m.config.Port,
		"type": ServiceType,
	}).Info("Advertising diagnostics over mDNS")

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Lookup queries the network once for timeout and returns what answered
func Lookup(timeout time.Duration) ([]Instance, error) {
	entries := make(chan *mdns.ServiceEntry, 16)
	var found []Instance
	done := make(chan struct{})

	go func() {
		defer close(done)
		for entry := range entries {
			found = append(found, toInstance(entry))
		}
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Timeout = timeout
	params.Entries = entries
	params.DisableIPv6 = true

	err := mdns.Query(params)
	close(entries)
	<-done
	if err != nil {
		return nil, fmt.Errorf("mdns query failed: %w", err)
	}
	return found, nil
}

func toInstance(entry *mdns.ServiceEntry) Instance {
	host := entry.Host
	if entry.AddrV4 != nil {
		host = entry.AddrV4.String()
	}
	return Instance{
		Name: entry.Name,
		Host: host,
		Port: entry.Port,
		Info: entry.InfoFields,
	}
}

// Stop stops the advertisement
func (m *Manager) Stop() {
	m.cancel()
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
