package validators

import "go.mongodb.org/mongo-driver/bson"

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"email",
			"phone_number",
			"role",
			"password_hash",
			"phone_verified",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 120,
			},

			"email": bson.M{
				"bsonType": "string",
				"pattern":  "^[^@\\s]+@[^@\\s]+$",
			},

			"phone_number": bson.M{
				"bsonType": "string",
				"pattern":  `^\+[1-9][0-9]{7,14}$`,
			},

			"role": bson.M{
				"bsonType": "string",
				"enum": []string{
					"lender",
					"borrower",
				},
			},

			"password_hash": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"image": bson.M{
				"bsonType": "string",
			},

			"phone_verified": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
