// Package rpcdial provides a minimal connection pool for the outbound
// tablet-server and compactor RPC clients. spec.md section 1 places the
// low-level RPC transport and connection pool out of scope to design; this
// is the concrete, swappable implementation a runnable coordinator needs.
package rpcdial

import (
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/devrev/compactcoord/internal/model"
	"github.com/devrev/compactcoord/internal/rpccodec"
	"github.com/devrev/compactcoord/pkg/compactorpb"
	"github.com/devrev/compactcoord/pkg/tserverpb"
)

// Pool caches one *grpc.ClientConn per address and lazily creates clients
// on top of them.
type Pool struct {
	mu    sync.Mutex
	conns map[string]*grpc.ClientConn
}

// NewPool constructs an empty connection pool.
func NewPool() *Pool {
	return &Pool{conns: make(map[string]*grpc.ClientConn)}
}

func (p *Pool) conn(address string) (*grpc.ClientConn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cc, ok := p.conns[address]; ok {
		return cc, nil
	}
	cc, err := grpc.NewClient(address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(rpccodec.Codec{})),
	)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}
	p.conns[address] = cc
	return cc, nil
}

// Dial implements service.TabletServerDialer.
func (p *Pool) Dial(tsi model.TabletServerID) (tserverpb.TabletServerClient, error) {
	cc, err := p.conn(tsi.String())
	if err != nil {
		return nil, err
	}
	return tserverpb.NewTabletServerClient(cc), nil
}

// CompactorPool adapts Pool to service.CompactorDialer, which dials by
// address rather than by TabletServerID.
type CompactorPool struct {
	*Pool
}

// Dial implements service.CompactorDialer.
func (p CompactorPool) Dial(address string) (compactorpb.CompactorClient, error) {
	cc, err := p.conn(address)
	if err != nil {
		return nil, err
	}
	return compactorpb.NewCompactorClient(cc), nil
}

// Close tears down every pooled connection.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, cc := range p.conns {
		cc.Close()
	}
	p.conns = make(map[string]*grpc.ClientConn)
}
