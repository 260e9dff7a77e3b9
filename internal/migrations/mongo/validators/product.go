package validators

import "go.mongodb.org/mongo-driver/bson"

var ProductValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"owner_id",
			"name",
			"description",
			"address",
			"created_at",
			"updated_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"owner_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 120,
			},

			"description": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 2000,
			},

			"images": bson.M{
				"bsonType": bson.A{"array", "null"},
				"maxItems": 20,
				"items": bson.M{
					"bsonType": "string",
				},
			},

			"address": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 300,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
