package models

import (
	"time"

	"gorm.io/gorm"
)

// Product is keyed by its human-assigned reference, not a surrogate id.
// LowStock is derived on read and never stored.
type Product struct {
	Ref            string     `gorm:"primaryKey"               json:"Ref_Produit"`
	Designation    string     `gorm:"not null"                 json:"Designation"`
	PurchasePrice  float64    `gorm:"not null"                 json:"Prix_Achat"`
	SalePrice      float64    `gorm:"not null"                 json:"Prix_Vente"`
	Stock          int        `gorm:"not null;default:0"       json:"Qt_Stock"`
	AlertThreshold int        `gorm:"not null;default:0"       json:"Seuil_Alerte"`
	VATRate        float64    `gorm:"not null;default:0"       json:"Taux_TVA"`
	CategoryID     uint       `gorm:"not null"                 json:"Id_Categorie"`
	Category       *Category  `gorm:"foreignKey:CategoryID"    json:"categorie,omitempty"`
	Suppliers      []Supplier `gorm:"many2many:product_suppliers" json:"fournisseurs,omitempty"`
	LowStock       bool       `gorm:"-"                        json:"low_stock"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (p *Product) ComputeLowStock() {
	p.LowStock = p.Stock <= p.AlertThreshold
}

type Category struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"Id_Categorie"`
	Label     string    `gorm:"not null"                 json:"Libelle_Cat"`
	Products  []Product `gorm:"foreignKey:CategoryID"    json:"produits,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Supplier struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"Id_Fournisseur"`
	Company   string    `gorm:"not null"                 json:"Nom_Societe"`
	Phone     string    `json:"Telephone"`
	Email     string    `json:"Email"`
	Products  []Product `gorm:"many2many:product_suppliers" json:"produits,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Client struct {
	ID        uint          `gorm:"primaryKey;autoIncrement" json:"Id_Client"`
	LastName  string        `gorm:"not null"                 json:"Nom"`
	FirstName string        `gorm:"not null"                 json:"Prenom"`
	Phone     string        `json:"Telephone"`
	Email     string        `json:"Email"`
	Address   string        `json:"Adresse"`
	Orders    []Order       `gorm:"foreignKey:ClientID;constraint:OnDelete:SET NULL" json:"commandes,omitempty"`
	Cards     []LoyaltyCard `gorm:"foreignKey:ClientID"      json:"cartes_fidelite,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type LoyaltyCard struct {
	Number    string    `gorm:"primaryKey"               json:"Num_Carte"`
	Points    int       `gorm:"not null;default:0"       json:"Points_Cumules"`
	IssuedOn  time.Time `gorm:"not null"                 json:"Date_Creation"`
	ClientID  uint      `gorm:"not null"                 json:"Id_Client"`
	Client    *Client   `gorm:"foreignKey:ClientID"      json:"client,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Order owns its lines; deleting an order cascades to them. Products are only
// referenced by lines and stay behind.
type Order struct {
	ID          uint        `gorm:"primaryKey;autoIncrement" json:"Id_Commande"`
	Name        string      `gorm:"uniqueIndex;not null"     json:"Nom_Commande"`
	Date        time.Time   `gorm:"not null"                 json:"date_Commande"`
	TimeOfDay   string      `gorm:"not null"                 json:"Heure_Cmd"`
	Total       float64     `gorm:"not null"                 json:"Total_TTC"`
	PaymentMode string      `gorm:"not null"                 json:"Mode_Paiement"`
	ClientID    *uint       `json:"Id_Client"`
	UserID      uint        `gorm:"not null"                 json:"Id_Utilisateur"`
	Client      *Client     `gorm:"foreignKey:ClientID"      json:"client,omitempty"`
	User        *User       `gorm:"foreignKey:UserID"        json:"utilisateur,omitempty"`
	Lines       []OrderLine `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"contient,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// OrderLine snapshots the unit price at the time of sale; it never tracks the
// product's current sale price.
type OrderLine struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID    uint      `gorm:"not null;uniqueIndex:uq_order_product" json:"Id_Commande"`
	ProductRef string    `gorm:"not null;uniqueIndex:uq_order_product" json:"Ref_Produit"`
	Quantity   int       `gorm:"not null;check:quantity > 0" json:"Quantite"`
	UnitPrice  float64   `gorm:"not null"                 json:"Prix_Unitaire"`
	Product    *Product  `gorm:"foreignKey:ProductRef;references:Ref;constraint:OnDelete:RESTRICT" json:"produit,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Notification with a nil UserID is a broadcast visible to every user.
type Notification struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *uint     `gorm:"index"                    json:"user_id"`
	Title     string    `gorm:"not null"                 json:"title"`
	Message   string    `gorm:"not null"                 json:"message"`
	Type      string    `gorm:"not null"                 json:"type"`
	Metadata  JSONB     `gorm:"type:jsonb"               json:"metadata"`
	IsRead    bool      `gorm:"not null;default:false"   json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"not null"                 json:"Nom_Utilisateur"`
	Email        string    `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         string    `gorm:"not null;default:vendeur" json:"Type_Utilisateur"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// APIToken mirrors issued bearer tokens so logout can revoke them server-side.
type APIToken struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Token     string    `gorm:"uniqueIndex;not null"     json:"-"`
	UserID    uint      `gorm:"index;not null"           json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"                 json:"expires_at"`
	Revoked   bool      `gorm:"not null;default:false"   json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Category{},
		&Supplier{},
		&Product{},
		&Client{},
		&LoyaltyCard{},
		&User{},
		&APIToken{},
		&Order{},
		&OrderLine{},
		&Notification{},
	)
}
