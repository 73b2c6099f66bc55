package boot

import (
	"fmt"
	"io/fs"
	"net"
	"os"

	"github.com/muurk/wifiportal/internal/discovery"
	"github.com/muurk/wifiportal/internal/fault"
	"github.com/muurk/wifiportal/internal/netup"
	"github.com/muurk/wifiportal/internal/portal"
	"github.com/muurk/wifiportal/internal/radio"
	"github.com/muurk/wifiportal/internal/settings"
	"github.com/muurk/wifiportal/internal/store"
	"github.com/muurk/wifiportal/internal/version"
)

// New builds a Booter from settings. The caller owns st and r.
func New(s *settings.Settings, st Store, r radio.Radio) (*Booter, error) {
	if errs := s.Validate(); len(errs) > 0 {
		return nil, fault.NewValidationError(fault.FormatErrors(errs))
	}

	address := net.ParseIP(s.AccessPoint.Address).To4()

	var pages fs.FS = portal.EmbeddedPages()
	if s.Pages.Dir != "" {
		info, err := os.Stat(s.Pages.Dir)
		if err != nil {
			return nil, fmt.Errorf("pages directory: %w", err)
		}
		if !info.IsDir() {
			return nil, fault.NewValidationError(fmt.Sprintf("pages.dir %s is not a directory", s.Pages.Dir))
		}
		pages = os.DirFS(s.Pages.Dir)
	}

	b := &Booter{
		Store: st,
		Network: &netup.Bringup{
			Radio:          r,
			ConnectTimeout: s.Station.ConnectTimeout,
			PollInterval:   s.Station.PollInterval,
			Address:        address,
			Netmask:        s.Netmask(),
		},
		Pages: portal.NewPages(pages, s.Pages.BufferSize),
		HTTP: portal.Config{
			Addr:            s.HTTP.Addr,
			ShutdownTimeout: s.HTTP.ShutdownTimeout,
		},
		DNS: DNSConfig{
			Addr:   s.DNS.Addr,
			TTL:    s.DNS.TTL,
			Domain: s.DNS.Domain,
		},
		DefaultSSID: s.AccessPoint.DefaultSSID,
		DefaultPass: s.AccessPoint.DefaultPass,
	}

	if s.Discovery.Enabled {
		b.Advertise = &discovery.AdvertiseConfig{
			Instance: s.Discovery.Instance,
			Service:  s.Discovery.Service,
			Domain:   s.Discovery.Domain,
			Version:  version.Version,
		}
	}

	return b, nil
}

// OpenStore opens the storage image named by the settings.
func OpenStore(s *settings.Settings) (*store.Store, error) {
	path, err := s.StoragePath()
	if err != nil {
		return nil, err
	}
	dev, err := store.OpenFile(path, s.Storage.Size)
	if err != nil {
		return nil, err
	}
	st, err := store.New(dev, s.Storage.Offset)
	if err != nil {
		_ = dev.Close()
		return nil, err
	}
	return st, nil
}

// OpenStoreReadOnly opens an existing storage image for reading only.
func OpenStoreReadOnly(s *settings.Settings) (*store.Store, error) {
	path, err := s.StoragePath()
	if err != nil {
		return nil, err
	}
	dev, err := store.OpenFileReadOnly(path, s.Storage.Size)
	if err != nil {
		return nil, err
	}
	st, err := store.New(dev, s.Storage.Offset)
	if err != nil {
		_ = dev.Close()
		return nil, err
	}
	return st, nil
}

// OpenRadio returns the configured radio backend.
func OpenRadio(s *settings.Settings) (radio.Radio, error) {
	switch s.Radio.Backend {
	case settings.BackendSimulated:
		return radio.NewSimulated(), nil
	case settings.BackendNetworkManager:
		return radio.NewNetworkManager(s.Radio.Interface, s.Radio.Connection), nil
	default:
		return nil, fault.NewValidationError(fmt.Sprintf("unknown radio backend %q", s.Radio.Backend))
	}
}

// NewRestarter returns the restart strategy named by kind.
func NewRestarter(kind string) (Restarter, error) {
	switch kind {
	case settings.RestartInProcess, "":
		return InProcess{}, nil
	case settings.RestartExec:
		return Exec{}, nil
	default:
		return nil, fault.NewValidationError(fmt.Sprintf("unknown restart strategy %q", kind))
	}
}
