package repository

import "gorm.io/gorm"

// Set bundles the repositories a service graph needs so backends can be swapped as a unit.
type Set struct {
	Invoices InvoiceRepository
	Agents   AgentRepository
	Clients  ClientRepository
	Audit    AuditRepository
	Tx       TransactionManager
}

// NewGormSet wires every repository to db.
func NewGormSet(db *gorm.DB) Set {
	return Set{
		Invoices: NewInvoiceRepository(db),
		Agents:   NewAgentRepository(db),
		Clients:  NewClientRepository(db),
		Audit:    NewAuditRepository(db),
		Tx:       NewTransactionManager(db),
	}
}
