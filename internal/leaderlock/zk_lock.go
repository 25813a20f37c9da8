package leaderlock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-zookeeper/zk"
	"go.uber.org/zap"
)

// ZKLock implements Lock with the classic ZooKeeper ephemeral-sequential
// leader-election recipe, grounded on ZKMembership's ephemeral-node
// registration pattern.
type ZKLock struct {
	conn      *zk.Conn
	events    <-chan zk.Event
	root      string
	advertise string
	log       *zap.Logger

	myPath   string
	isLeader atomic.Bool
}

// NewZKLock dials ZooKeeper and returns a Lock rooted at root. advertise is
// the host:port this coordinator stores as the data of its sequential node
// under the lock path, written when Acquire creates the node (spec.md 6:
// "coordinator advertises its host:port at a well-known lock path").
func NewZKLock(hosts []string, root, advertise string, sessionTimeout time.Duration, log *zap.Logger) (*ZKLock, error) {
	conn, events, err := zk.Connect(hosts, sessionTimeout)
	if err != nil {
		return nil, fmt.Errorf("zk connect: %w", err)
	}
	if err := ensurePath(conn, root); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ensure lock root: %w", err)
	}
	return &ZKLock{conn: conn, events: events, root: root, advertise: advertise, log: log}, nil
}

func ensurePath(conn *zk.Conn, path string) error {
	parts := strings.Split(path, "/")
	cur := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		cur = cur + "/" + p
		exists, _, err := conn.Exists(cur)
		if err != nil {
			return err
		}
		if !exists {
			if _, err := conn.Create(cur, nil, 0, zk.WorldACL(zk.PermAll)); err != nil && err != zk.ErrNodeExists {
				return err
			}
		}
	}
	return nil
}

// Acquire blocks until this process's sequential node is the
// lowest-numbered child of root.
func (l *ZKLock) Acquire(ctx context.Context) error {
	path, err := l.conn.CreateProtectedEphemeralSequential(
		l.root+"/lock-", []byte(l.advertise), zk.WorldACL(zk.PermAll),
	)
	if err != nil {
		return fmt.Errorf("create sequential node: %w", err)
	}
	l.myPath = path
	myName := path[strings.LastIndex(path, "/")+1:]

	for {
		children, _, err := l.conn.Children(l.root)
		if err != nil {
			return fmt.Errorf("list lock children: %w", err)
		}
		sort.Strings(children)

		if len(children) == 0 || children[0] == myName {
			l.log.Info("acquired leader lock", zap.String("path", path))
			l.isLeader.Store(true)
			return nil
		}

		predecessor := lastLower(children, myName)
		exists, _, watch, err := l.conn.ExistsW(l.root + "/" + predecessor)
		if err != nil {
			return fmt.Errorf("watch predecessor: %w", err)
		}
		if !exists {
			continue
		}

		select {
		case <-watch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// lastLower returns the largest element of a sorted slice strictly less
// than target, used to watch only the immediate predecessor rather than
// every sibling (avoids the herd effect of watching the whole set).
func lastLower(sorted []string, target string) string {
	best := ""
	for _, c := range sorted {
		if c < target && c > best {
			best = c
		}
	}
	return best
}

// Watch reports the loss of the ZK session backing this lock's ephemeral
// node.
func (l *ZKLock) Watch(ctx context.Context) <-chan error {
	out := make(chan error, 1)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-l.events:
				if ev.State == zk.StateExpired || ev.State == zk.StateDisconnected {
					l.isLeader.Store(false)
					out <- fmt.Errorf("zookeeper session lost: %v", ev.State)
					return
				}
			}
		}
	}()
	return out
}

// Release deletes this process's sequential lock node.
func (l *ZKLock) Release() error {
	l.isLeader.Store(false)
	if l.myPath == "" {
		return nil
	}
	err := l.conn.Delete(l.myPath, -1)
	l.myPath = ""
	return err
}

// IsLeader reports whether this process currently holds the lock.
func (l *ZKLock) IsLeader() bool {
	return l.isLeader.Load()
}
