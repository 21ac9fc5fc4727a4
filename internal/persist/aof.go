// Package persist implements the append-only command log: every
// mutating command is appended verbatim as a RESP frame, with a
// configurable fsync policy, replayed at startup for crash recovery,
// and periodically compacted (rewrite) to a minimal recreation of the
// live dataset. No RDB snapshotting or at-rest encryption.
package persist

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/nyxdb/nyxdb/internal/config"
	"github.com/nyxdb/nyxdb/internal/keyspace"
	"github.com/nyxdb/nyxdb/internal/logging"
	"github.com/nyxdb/nyxdb/internal/resp"
)

// AOF owns one append-only log file per database.
type AOF struct {
	mu    sync.Mutex
	f     *os.File
	w     *resp.Writer
	path  string
	fsync config.FSyncMode
	log   *logging.Logger
	dbID  int
	dirty bool // unflushed writes pending under everysec
}

// Open creates or reopens dbID's AOF file under dir, appending to any
// existing content (NewAof's O_CREATE|O_APPEND|O_RDWR behavior).
func Open(dir string, dbID int, fsync config.FSyncMode, log *logging.Logger) (*AOF, error) {
	name := filepath.Join(dir, "nyxdb-"+itoa(dbID)+".aof")
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	return &AOF{
		f:     f,
		w:     resp.NewWriter(f),
		path:  name,
		fsync: fsync,
		log:   log,
		dbID:  dbID,
	}, nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Append logs one mutating command's argv, flushing per the fsync
// policy: "always" syncs immediately, "everysec" defers to the
// background ticker started by StartFsyncLoop, "no" leaves flushing
// to the OS.
func (a *AOF) Append(argv []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.w.WriteCommand(argv); err != nil {
		return err
	}
	if err := a.w.Flush(); err != nil {
		return err
	}
	switch a.fsync {
	case config.FSyncAlways:
		return a.f.Sync()
	case config.FSyncEverysec:
		a.dirty = true
		return nil
	default:
		return nil
	}
}

// StartFsyncLoop runs a background ticker that syncs once per second
// under the "everysec" policy; a no-op under any other policy.
func (a *AOF) StartFsyncLoop(stop <-chan struct{}) {
	if a.fsync != config.FSyncEverysec {
		return
	}
	ticker := time.NewTicker(time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				a.mu.Lock()
				if a.dirty {
					if err := a.f.Sync(); err != nil {
						a.log.Error("aof: fsync failed for db %d: %v", a.dbID, err)
					}
					a.dirty = false
				}
				a.mu.Unlock()
			}
		}
	}()
}

// Close closes the underlying file.
func (a *AOF) Close() error { return a.f.Close() }

// Replay reads every logged command from the start of the file and
// re-applies it against db via dispatch, rebuilding in-memory state
// after a restart.
func Replay(a *AOF, srv *keyspace.Server, dbIndex int, dispatch func(argv []string) keyspace.Result) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.f.Seek(0, 0); err != nil {
		return 0, err
	}
	r := bufio.NewReader(a.f)
	count := 0
	for {
		argv, err := resp.ReadCommand(r)
		if err != nil {
			break // EOF or a trailing partial frame from a crash mid-write
		}
		if len(argv) == 0 {
			continue
		}
		dispatch(argv)
		count++
	}
	if _, err := a.f.Seek(0, 2); err != nil {
		return count, err
	}
	a.log.Info("aof: replayed %d commands for db %d", count, dbIndex)
	return count, nil
}

// Rewrite compacts a's log to a minimal set of commands that recreate
// db's current contents: one SET/RPUSH/SADD/HSET/ZADD per live key
// plus an EXPIREAT for keys carrying a TTL. Grounded on the teacher's
// BGREWRITEAOF, re-expressed without the buffered-write-redirection
// phase (new writes simply land in a's normal Append path through
// a.mu, same as any other write, since the dump below never holds it
// for more than one key at a time).
//
// The key snapshot is walked across many short db.Mu acquisitions
// rather than one long one, so ordinary commands can keep running
// during a large dump; PauseRehash holds the dictionaries' bucket
// layout still for the snapshot's lifetime so a rehash in between two
// of those acquisitions can't move a key out from under the walk.
func Rewrite(a *AOF, db *keyspace.Database, dbIndex int) error {
	db.Mu.Lock()
	db.PauseRehash()
	keys := db.Keys()
	db.Mu.Unlock()
	defer func() {
		db.Mu.Lock()
		db.ResumeRehash()
		db.Mu.Unlock()
	}()

	tmpName := a.path + ".rewrite"
	tmp, err := os.OpenFile(tmpName, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	w := resp.NewWriter(tmp)

	count := 0
	for _, key := range keys {
		db.Mu.Lock()
		v, ok := db.GetValue(key)
		var expireAt int64
		var hasExpire bool
		if ok {
			expireAt, hasExpire = db.GetExpire(key)
		}
		db.Mu.Unlock()
		if !ok {
			continue
		}
		if err := writeRecreateCommand(w, key.Bytes(), v); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return err
		}
		if hasExpire {
			cmd := []string{"EXPIREAT", key.Bytes(), strconv.FormatInt(expireAt, 10)}
			if err := w.WriteCommand(cmd); err != nil {
				tmp.Close()
				os.Remove(tmpName)
				return err
			}
		}
		count++
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.f.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, a.path); err != nil {
		return err
	}
	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	a.f = f
	a.w = resp.NewWriter(f)
	a.log.Info("aof: rewrote db %d to %d commands", dbIndex, count)
	return nil
}

// writeRecreateCommand writes the single command (or, for hash/zset,
// one HSET/ZADD covering every field) that recreates v under key.
// Empty collections write nothing; LookupRead-equivalent paths never
// store one, but a zero-length General/Packed after a partial command
// sequence is defensive here rather than assumed impossible.
func writeRecreateCommand(w *resp.Writer, key string, v *keyspace.Value) error {
	switch v.Type {
	case keyspace.TypeString:
		return w.WriteCommand([]string{"SET", key, v.AsBytes()})
	case keyspace.TypeList:
		elems := v.List.Elements()
		if len(elems) == 0 {
			return nil
		}
		return w.WriteCommand(append([]string{"RPUSH", key}, elems...))
	case keyspace.TypeSet:
		members := v.Set.Members()
		if len(members) == 0 {
			return nil
		}
		return w.WriteCommand(append([]string{"SADD", key}, members...))
	case keyspace.TypeHash:
		fields := v.Hash.Fields()
		if len(fields) == 0 {
			return nil
		}
		argv := make([]string, 0, 2+2*len(fields))
		argv = append(argv, "HSET", key)
		for _, field := range fields {
			val, _ := v.Hash.Get(field)
			argv = append(argv, field, val)
		}
		return w.WriteCommand(argv)
	case keyspace.TypeZSet:
		if v.ZSet.Len() == 0 {
			return nil
		}
		argv := make([]string, 0, 2+2*v.ZSet.Len())
		argv = append(argv, "ZADD", key)
		for member, score := range v.ZSet.Scores {
			argv = append(argv, strconv.FormatFloat(score, 'f', -1, 64), member)
		}
		return w.WriteCommand(argv)
	default:
		return nil
	}
}
