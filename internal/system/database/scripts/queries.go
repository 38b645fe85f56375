/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package scripts

var GetPreferencesBySubject = map[string]string{
	"postgres": `SELECT category, granted, updated_at FROM consent_preferences WHERE subject = $1 ORDER BY category`,
}

var DeletePreferencesBySubject = map[string]string{
	"postgres": `DELETE FROM consent_preferences WHERE subject = $1`,
}

var UpsertPreference = map[string]string{
	"postgres": `INSERT INTO consent_preferences (subject, category, granted, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (subject, category) DO UPDATE SET granted = EXCLUDED.granted, updated_at = EXCLUDED.updated_at`,
}

var GetCategoryList = map[string]string{
	"postgres": `SELECT categories FROM consent_category_lists WHERE subject = $1`,
}

var UpsertCategoryList = map[string]string{
	"postgres": `INSERT INTO consent_category_lists (subject, categories, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (subject) DO UPDATE SET categories = EXCLUDED.categories, updated_at = EXCLUDED.updated_at`,
}

var InsertArchivedEvent = map[string]string{
	"postgres": `INSERT INTO event_archive (message_id, event_type, event_name, anonymous_id, user_id, event_timestamp, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (message_id) DO NOTHING`,
}
