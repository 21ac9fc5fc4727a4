package keyspace

import "strings"

// CommandFlags carries the two bits attached to a command: whether it
// participates in the DENY_OOM memory-pressure gate and whether it
// mutates the keyspace at all (used to decide whether a successful
// call should be handed to the AOF writer).
type CommandFlags struct {
	DenyOOM bool
	Write   bool
}

// CommandEntry pairs a command's procedure with its flags.
type CommandEntry struct {
	Fn    CommandFunc
	Flags CommandFlags
}

func w(fn CommandFunc, denyOOM bool) CommandEntry {
	return CommandEntry{Fn: fn, Flags: CommandFlags{DenyOOM: denyOOM, Write: true}}
}

func r(fn CommandFunc) CommandEntry {
	return CommandEntry{Fn: fn, Flags: CommandFlags{}}
}

// CommandTable maps every case-insensitive command name to its
// procedure and flags.
var CommandTable = map[string]CommandEntry{
	"get":    r(Get),
	"set":    w(Set, true),
	"setnx":  w(Setnx, true),
	"setex":  w(Setex, true),
	"setnxex": w(Setnxex, true),
	"getset": w(Getset, true),
	"incr":   w(Incr, true),
	"decr":   w(Decr, true),
	"incrby": w(Incrby, true),
	"decrby": w(Decrby, true),

	"rpush":  w(Rpush, true),
	"lpush":  w(Lpush, true),
	"rpushx": w(Rpushx, true),
	"lpushx": w(Lpushx, true),
	"linsert": w(Linsert, true),
	"rpop":   w(Rpop, false),
	"lpop":   w(Lpop, false),
	"llen":   r(Llen),
	"lindex": r(Lindex),
	"lset":   w(Lset, true),
	"lrange": r(Lrange),
	"ltrim":  w(Ltrim, false),
	"lrem":   w(Lrem, false),

	"sadd":        w(Sadd, true),
	"srem":        w(Srem, false),
	"smove":       w(Smove, false),
	"sismember":   r(Sismember),
	"scard":       r(Scard),
	"spop":        w(Spop, false),
	"sinter":      {Fn: Sinter, Flags: CommandFlags{DenyOOM: true}},
	"sinterstore": w(Sinterstore, true),
	"smembers":    r(Smembers),

	"zadd":    w(Zadd, true),
	"zincrby": w(Zincrby, true),
	"zrem":    w(Zrem, false),

	"zremrangebyscore":   w(Zremrangebyscore, false),
	"zremrangebyrank":    w(Zremrangebyrank, false),
	"zrange":             r(Zrange),
	"zrangebyscore":      r(Zrangebyscore),
	"zrevrangebyscore":   r(Zrevrangebyscore),
	"zcount":             r(Zcount),
	"zrevrange":          r(Zrevrange),
	"zcard":              r(Zcard),
	"zscore":             r(Zscore),
	"zrank":              r(Zrank),
	"zrevrank":           r(Zrevrank),
	"zrangewithscore":    r(Zrangewithscore),
	"zrevrangewithscore": r(Zrevrangewithscore),

	"hset":     w(Hset, true),
	"hsetnx":   w(Hsetnx, true),
	"hget":     r(Hget),
	"hmset":    w(Hmset, true),
	"hmget":    r(Hmget),
	"hincrby":  w(Hincrby, true),
	"hdel":     w(Hdel, false),
	"hlen":     r(Hlen),
	"hkeys":    r(Hkeys),
	"hvals":    r(Hvals),
	"hgetall":  r(Hgetall),
	"hexists":  r(Hexists),

	"del":     w(Del, false),
	"exists":  r(Exists),
	"type":    r(Type),
	"expire":  w(Expire, false),
	"ttl":     r(Ttl),
	"persist": w(Persist, false),
}

// Lookup resolves a command name case-insensitively.
func Lookup(name string) (CommandEntry, bool) {
	entry, ok := CommandTable[strings.ToLower(name)]
	return entry, ok
}
