// @title           joe-books API
// @version         1.0
// @description     Book catalog and reviews. Books live in a SQL database; reviews in a document store.
// @BasePath        /api
package api
