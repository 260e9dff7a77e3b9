package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"product_id",
			"user_id",
			"from",
			"to",
			"contact_number",
			"address",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"product_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"user_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"from": bson.M{
				"bsonType": "date",
			},

			"to": bson.M{
				"bsonType": "date",
			},

			"booking_query": bson.M{
				"bsonType":  "string",
				"maxLength": 1000,
			},

			"contact_number": bson.M{
				"bsonType": "string",
				"pattern":  `^\+[1-9][0-9]{7,14}$`,
			},

			"address": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 300,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var BookingLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"_id", "owner", "expires_at"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
				"pattern":  "^booking_lock_",
			},

			"owner": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"expires_at": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
