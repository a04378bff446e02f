package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// ParseID converts a hex id from a request into an ObjectID, reporting field on failure.
func ParseID(field, hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, NewValidationError(field, "must be a valid id")
	}
	return id, nil
}
