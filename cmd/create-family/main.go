package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/coparental/guardlink/src/api/config"
	"github.com/coparental/guardlink/src/api/types"
	"github.com/coparental/guardlink/src/shared/data"
)

// Seeds a shared-custody family: two guardians and one child.
func main() {
	name := flag.String("name", "", "family display name")
	emailA := flag.String("guardian-a", "", "first guardian email")
	emailB := flag.String("guardian-b", "", "second guardian email")
	password := flag.String("password", "", "initial password for both guardians")
	childName := flag.String("child", "", "child display name")
	admin := flag.Bool("admin", false, "mark the first guardian as admin")
	flag.Parse()

	if *name == "" || *emailA == "" || *emailB == "" || *password == "" || *childName == "" {
		log.Fatalf("usage: create-family -name NAME -guardian-a EMAIL -guardian-b EMAIL -password PW -child NAME")
	}

	cfg := config.Load()
	db := data.MustMySQL(cfg.MySQLDSN)
	if err := db.AutoMigrate(&types.Family{}, &types.Guardian{}, &types.Child{}); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now()
	family := types.Family{ID: uuid.NewString(), Name: *name, SharedCustody: true, CreatedAt: now}
	guardianA := types.Guardian{
		ID: uuid.NewString(), FamilyID: family.ID, Name: *emailA,
		Email: *emailA, PasswordHash: string(hash), IsAdmin: *admin, CreatedAt: now,
	}
	guardianB := types.Guardian{
		ID: uuid.NewString(), FamilyID: family.ID, Name: *emailB,
		Email: *emailB, PasswordHash: string(hash), CreatedAt: now,
	}
	child := types.Child{ID: uuid.NewString(), FamilyID: family.ID, Name: *childName, CreatedAt: now}

	if err := db.Create(&family).Error; err != nil {
		log.Fatalf("create family: %v", err)
	}
	for _, g := range []types.Guardian{guardianA, guardianB} {
		if err := db.Create(&g).Error; err != nil {
			log.Fatalf("create guardian %s: %v", g.Email, err)
		}
	}
	if err := db.Create(&child).Error; err != nil {
		log.Fatalf("create child: %v", err)
	}

	fmt.Printf("family   %s  %s\n", family.ID, family.Name)
	fmt.Printf("guardian %s  %s\n", guardianA.ID, guardianA.Email)
	fmt.Printf("guardian %s  %s\n", guardianB.ID, guardianB.Email)
	fmt.Printf("child    %s  %s\n", child.ID, child.Name)
}
