package commerce

import "errors"

// Taxonomie d'erreurs du moteur. Les handlers HTTP les traduisent en codes
// de statut via errors.Is.
var (
	// ErrNotFound : panier, commande, item ou produit inconnu
	ErrNotFound = errors.New("ressource introuvable")

	// ErrInvalidArgument : quantité non positive, statut malformé, etc.
	ErrInvalidArgument = errors.New("argument invalide")

	// ErrInsufficientStock : la quantité demandée dépasse le stock disponible.
	// Renvoyée par les contrôles indicatifs côté panier comme par le débit
	// autoritaire à la création de commande.
	ErrInsufficientStock = errors.New("stock insuffisant")

	// ErrInvalidTransition : changement de statut absent de la table des
	// transitions autorisées
	ErrInvalidTransition = errors.New("transition de statut invalide")

	// ErrEmptyBasket : conversion tentée sur un panier sans articles
	ErrEmptyBasket = errors.New("panier vide")

	// ErrBasketNotActive : mutation tentée sur un panier converti, abandonné
	// ou expiré
	ErrBasketNotActive = errors.New("panier non actif")

	// ErrConflict : une mutation concurrente a gagné la course au niveau du
	// stockage. L'appelant doit recharger l'état puis réessayer.
	ErrConflict = errors.New("conflit de mise à jour concurrente")
)
