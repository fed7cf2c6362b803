package models

import (
	"log"

	"bitbucket.org/mmdatafocus/recon_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Business{}, &Branch{}, &User{},
		&Account{},
		&BankMutation{}, &MatchRecord{}, &ManualEntry{},
		&SalesOrder{}, &CashDeposit{}, &HotelInvoice{},
		&Journal{}, &JournalTransaction{},
	)
	if err != nil {
		log.Fatal(err)
	}
	log.Println("Migration completed")
}
