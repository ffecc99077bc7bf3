// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package netssh drives Cisco IOS command line sessions over SSH.
//
// A [Session] is an interactive shell on one router: it learns the
// hostname from the prompt, enters enable mode, disables paging and then
// runs exec commands or configuration sets, waiting for the prompt after
// each line.
//
// A [Manager] opens sessions by inventory name. Routers that are only
// reachable through another router are opened through a cached jump host
// connection, either as a nested SSH connection inside a direct-tcpip
// channel or, when the jump router refuses forwarding, by running "ssh"
// from the jump router's own CLI. The strategy that worked is remembered
// per device. A failed open is retried once after reconnecting the jump
// host, and [Manager.Close] tears down every cached jump connection.
//
// Example:
//
//	dialer, _ := netssh.NewDialer(netssh.DialerConfig{InsecureIgnoreHostKey: true}, log)
//	mgr, _ := netssh.NewManager(inv, netssh.Options{Dialer: dialer, Logger: log})
//	defer mgr.Close()
//
//	sess, err := mgr.Open(ctx, "R2")
//	if err != nil {
//		return err
//	}
//	defer sess.Close()
//
//	out, err := sess.SendCommand(ctx, "show ip ospf neighbor")
package netssh
