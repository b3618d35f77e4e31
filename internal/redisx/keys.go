package redisx

import "time"

const (
	// Session token: session:{token} -> identity JSON
	KeySession = "session:%s"

	// Cache order: order:{order_id} -> order JSON
	KeyOrder = "order:%s"

	// Cache dashboard summary: dashboard:{period}
	KeyDashboard = "dashboard:%s"
)

var (
	TTLOrderCache = 5 * time.Minute
)
