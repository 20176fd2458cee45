// Package kvclient issues commands against Redis-protocol servers through
// interchangeable drivers.
//
// A Client wraps one driver.Driver and runs each call in one of three
// modes. In direct mode Call and Do run the command immediately. Between
// Pipeline and Flush calls are queued and sent in one round trip. Between
// Multi and Exec they run as a MULTI/EXEC transaction, and Discard drops
// them without contacting the server.
//
// Calls are built from typed command constructors:
//
//	client, err := kvclient.Open("goredis", driver.Options{Addrs: []string{"localhost:6379"}}, kvclient.Config{})
//	...
//	_ = client.Pipeline(ctx)
//	n := kvclient.Call(ctx, client, kvclient.Incr("counter"))
//	v := kvclient.Call(ctx, client, kvclient.Get("counter"))
//	_, err = client.Flush(ctx)
//	fmt.Println(n.Val(), v.Val().Value)
//
// The client checks every call against the deployment topology before it
// reaches the driver. On a cluster the keys of a call must share a hash
// slot, except for DEL, UNLINK, EXISTS, TOUCH, MGET and MSET which are
// split per slot and merged back in order.
package kvclient
